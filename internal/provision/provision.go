// Package provision creates a login account for every new employee.
package provision

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"pazaauto.id/internal/auth"
	"pazaauto.id/internal/obs"
)

const (
	DefaultEmailDomain = "example.com"
	defaultRole        = auth.RoleUser
)

// AccountStore is the subset of the credential store provisioning needs.
type AccountStore interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	HasAccountForEmployee(ctx context.Context, employeeID int64) (bool, error)
	CreateAccount(ctx context.Context, acct auth.Account) error
}

// Employee is the part of an employee record that shapes its account.
type Employee struct {
	ID    int64
	Name  string
	Email string
	Roles []string
}

// CandidateUsername is the email when present, otherwise the lower-cased
// name with all whitespace removed followed by the employee id.
func CandidateUsername(name, email string, id int64) string {
	if email = strings.TrimSpace(email); email != "" {
		return email
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	b.WriteString(strconv.FormatInt(id, 10))
	return b.String()
}

// Disambiguate appends a nanosecond timestamp to a taken name-derived
// candidate. Email-derived candidates are returned unchanged and will fail
// on the store's uniqueness constraint.
func Disambiguate(candidate string, taken, nameDerived bool, now time.Time) string {
	if !taken || !nameDerived {
		return candidate
	}
	return candidate + strconv.FormatInt(now.UnixNano(), 10)
}

// Provisioner is the post-create hook for employees.
type Provisioner struct {
	accounts        AccountStore
	placeholderHash string
	emailDomain     string
	now             func() time.Time
	log             *slog.Logger
}

// Option configures a Provisioner.
type Option func(*Provisioner) error

// WithPlaceholderHash sets the bcrypt hash stored as the initial password.
// A non-empty value that is not a bcrypt hash is rejected.
func WithPlaceholderHash(hash string) Option {
	return func(p *Provisioner) error {
		if hash = strings.TrimSpace(hash); hash == "" {
			return nil
		}
		if err := auth.CheckHash(hash); err != nil {
			return fmt.Errorf("provision: placeholder hash: %w", err)
		}
		p.placeholderHash = hash
		return nil
	}
}

// WithEmailDomain sets the domain of fallback account emails.
func WithEmailDomain(domain string) Option {
	return func(p *Provisioner) error {
		if domain = strings.Trim(strings.TrimSpace(domain), "@"); domain != "" {
			p.emailDomain = domain
		}
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(p *Provisioner) error {
		if fn != nil {
			p.now = fn
		}
		return nil
	}
}

// New builds a Provisioner. Without WithPlaceholderHash the initial password
// is a random secret nobody knows, so accounts need a reset before first login.
func New(accounts AccountStore, opts ...Option) (*Provisioner, error) {
	if accounts == nil {
		return nil, errors.New("provision: account store is required")
	}
	p := &Provisioner{
		accounts:    accounts,
		emailDomain: DefaultEmailDomain,
		now:         time.Now,
		log:         obs.Logger().With("component", "provision"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.placeholderHash == "" {
		hash, err := randomHash()
		if err != nil {
			return nil, err
		}
		p.placeholderHash = hash
	}
	return p, nil
}

// Provision creates the account for emp and returns its username. It is a
// no-op when an account already links to emp.
func (p *Provisioner) Provision(ctx context.Context, emp Employee) (string, error) {
	if emp.ID == 0 {
		return "", errors.New("provision: employee id is required")
	}
	linked, err := p.accounts.HasAccountForEmployee(ctx, emp.ID)
	if err != nil {
		return "", fmt.Errorf("check employee account: %w", err)
	}
	if linked {
		return "", nil
	}

	email := strings.TrimSpace(emp.Email)
	username := CandidateUsername(emp.Name, email, emp.ID)
	taken, err := p.accounts.UsernameExists(ctx, username)
	if err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	username = Disambiguate(username, taken, email == "", p.now())

	if email == "" {
		email = username + "@" + p.emailDomain
	}
	roles := emp.Roles
	if len(roles) == 0 {
		roles = []string{defaultRole}
	}
	id := emp.ID
	acct := auth.Account{
		Username:     username,
		Email:        email,
		PasswordHash: p.placeholderHash,
		Roles:        roles,
		Active:       true,
		EmployeeID:   &id,
	}
	if err := p.accounts.CreateAccount(ctx, acct); err != nil {
		return "", fmt.Errorf("create account for employee %d: %w", emp.ID, err)
	}
	p.log.Info("account provisioned", "employee_id", emp.ID, "username", username)
	return username, nil
}

func randomHash() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate placeholder password: %w", err)
	}
	return auth.HashPassword(hex.EncodeToString(buf))
}
