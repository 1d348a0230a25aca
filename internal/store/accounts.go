package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pazaauto.id/internal/auth"
)

// Accounts is the credential store. It serves the authenticator, the
// permission resolver and employee provisioning.
type Accounts struct {
	db *DB
}

var (
	_ auth.AccountFinder      = (*Accounts)(nil)
	_ auth.EmployeeDirectory  = (*Accounts)(nil)
	_ auth.PermissionResolver = (*Accounts)(nil)
)

func NewAccounts(db *DB) *Accounts { return &Accounts{db: db} }

type accountRow struct {
	Username     string        `db:"username"`
	Email        string        `db:"email"`
	PasswordHash string        `db:"password_hash"`
	Active       bool          `db:"active"`
	EmployeeID   sql.NullInt64 `db:"employee_id"`
}

// FindByUsername returns the account with its roles, or auth.ErrNotFound.
func (s *Accounts) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row, err := Get[accountRow](ctx, s.db, `
		select username, email, password_hash, active, employee_id
		from accounts
		where username = ?
	`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	roles, err := Select[string](ctx, s.db, `
		select role from account_roles where username = ? order by role
	`, username)
	if err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	acct := &auth.Account{
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Roles:        roles,
		Active:       row.Active,
	}
	if row.EmployeeID.Valid {
		id := row.EmployeeID.Int64
		acct.EmployeeID = &id
	}
	return acct, nil
}

// EmployeeForUsername follows the account's employee link.
func (s *Accounts) EmployeeForUsername(ctx context.Context, username string) (*auth.EmployeeLink, error) {
	link, err := Get[auth.EmployeeLink](ctx, s.db, `
		select e.id as id, e.name as name
		from accounts a
		join employees e on e.id = a.employee_id
		where a.username = ?
	`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select employee link: %w", err)
	}
	return &link, nil
}

// PermissionsForUser returns the union of permissions granted to the user's roles.
func (s *Accounts) PermissionsForUser(ctx context.Context, username string) ([]string, error) {
	perms, err := Select[string](ctx, s.db, `
		select distinct rp.permission
		from account_roles ar
		join role_permissions rp on rp.role = ar.role
		where ar.username = ?
		order by rp.permission
	`, username)
	if err != nil {
		return nil, fmt.Errorf("select permissions: %w", err)
	}
	return perms, nil
}

// UsernameExists reports whether an account already uses username.
func (s *Accounts) UsernameExists(ctx context.Context, username string) (bool, error) {
	n, err := Get[int64](ctx, s.db, `select count(*) from accounts where username = ?`, username)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

// HasAccountForEmployee reports whether an account links to employeeID.
func (s *Accounts) HasAccountForEmployee(ctx context.Context, employeeID int64) (bool, error) {
	n, err := Get[int64](ctx, s.db, `select count(*) from accounts where employee_id = ?`, employeeID)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

// CreateAccount inserts acct and its roles. A taken username or employee
// link surfaces as ErrConflict.
func (s *Accounts) CreateAccount(ctx context.Context, acct auth.Account) error {
	username := strings.TrimSpace(acct.Username)
	if username == "" {
		return errors.New("store: account username is required")
	}
	if acct.PasswordHash == "" {
		return errors.New("store: account password hash is required")
	}
	return s.db.WithinTx(ctx, func(ctx context.Context) error {
		var employeeID any
		if acct.EmployeeID != nil {
			employeeID = *acct.EmployeeID
		}
		if _, err := Exec(ctx, s.db, `
			insert into accounts (username, email, password_hash, active, employee_id, created_at)
			values (?, ?, ?, ?, ?, ?)
		`, username, acct.Email, acct.PasswordHash, acct.Active, employeeID, s.db.now().UTC()); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		seen := map[string]struct{}{}
		for _, role := range acct.Roles {
			role = strings.ToLower(strings.TrimSpace(role))
			if role == "" {
				continue
			}
			if _, dup := seen[role]; dup {
				continue
			}
			seen[role] = struct{}{}
			if _, err := Exec(ctx, s.db, `insert into account_roles (username, role) values (?, ?)`, username, role); err != nil {
				return fmt.Errorf("insert role: %w", err)
			}
		}
		return nil
	})
}

// SetActive enables or disables an account.
func (s *Accounts) SetActive(ctx context.Context, username string, active bool) error {
	n, err := Exec(ctx, s.db, `update accounts set active = ? where username = ?`, active, username)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// EnsureAccount creates acct unless its username is already taken. It
// reports whether an account was created.
func (s *Accounts) EnsureAccount(ctx context.Context, acct auth.Account) (bool, error) {
	exists, err := s.UsernameExists(ctx, strings.TrimSpace(acct.Username))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.CreateAccount(ctx, acct); err != nil {
		return false, err
	}
	return true, nil
}
