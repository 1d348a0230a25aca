package auth

import "context"

// AccountFinder looks accounts up by username. Implementations return
// ErrNotFound when no account matches.
type AccountFinder interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
}

// EmployeeDirectory resolves the employee linked to an account.
// A missing link is reported as ErrNotFound.
type EmployeeDirectory interface {
	EmployeeForUsername(ctx context.Context, username string) (*EmployeeLink, error)
}

// PermissionResolver returns the fine-grained permissions granted to a user.
type PermissionResolver interface {
	PermissionsForUser(ctx context.Context, username string) ([]string, error)
}
