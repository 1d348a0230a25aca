package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-0123456789"

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*Account
	err      error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: map[string]*Account{}}
}

func (m *memAccounts) put(a Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.Username] = &a
}

func (m *memAccounts) remove(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, username)
}

func (m *memAccounts) FindByUsername(_ context.Context, username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	cp.Roles = append([]string(nil), a.Roles...)
	return &cp, nil
}

type memEmployees map[string]EmployeeLink

func (m memEmployees) EmployeeForUsername(_ context.Context, username string) (*EmployeeLink, error) {
	e, ok := m[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

type stubResolver struct {
	perms []string
	err   error
	calls int
}

func (s *stubResolver) PermissionsForUser(context.Context, string) ([]string, error) {
	s.calls++
	return s.perms, s.err
}

var errResolverDown = errors.New("resolver down")

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func newTestTokens(t *testing.T, cfg TokenConfig, opts ...TokenOption) *TokenService {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = testSecret
	}
	svc, err := NewTokenService(cfg, opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
