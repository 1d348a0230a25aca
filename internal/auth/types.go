package auth

import "strings"

// Built-in role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account is a login identity held by the credential store.
type Account struct {
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	Active       bool
	EmployeeID   *int64

	// EmployeeName is filled from the linked employee record at login time.
	EmployeeName string
}

// CanAuthenticate reports whether the account may receive tokens.
func (a *Account) CanAuthenticate() bool {
	return a != nil && a.Active && strings.TrimSpace(a.Username) != ""
}

// EmployeeLink is the employee record an account points to.
type EmployeeLink struct {
	ID   int64
	Name string
}

// UserInfo is the projection of verified access-token claims returned by /auth/me.
type UserInfo struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	EmployeeID   *int64   `json:"employeeId,omitempty"`
	EmployeeName string   `json:"employeeName,omitempty"`
}

// LoginResponse is returned by both login and refresh.
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func dedupeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	var normalized []string
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}
