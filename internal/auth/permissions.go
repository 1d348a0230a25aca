package auth

import "strings"

// Permission actions on business resources.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// Permission builds the permission key for an action on a resource, e.g. "employees.read".
func Permission(resource, action string) string {
	return strings.ToLower(strings.TrimSpace(resource)) + "." + action
}

// HasRole reports whether the claims carry role.
func (c *AccessClaims) HasRole(role string) bool {
	role = strings.TrimSpace(strings.ToLower(role))
	if c == nil || role == "" {
		return false
	}
	for _, r := range c.Groups {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// HasPermission reports whether the claims carry the permission key.
func (c *AccessClaims) HasPermission(key string) bool {
	if c == nil {
		return false
	}
	for _, p := range c.Permissions {
		if p == key {
			return true
		}
	}
	return false
}

// Allows is HasPermission with an admin override.
func (c *AccessClaims) Allows(key string) bool {
	return c.HasRole(RoleAdmin) || c.HasPermission(key)
}
