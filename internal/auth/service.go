package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pazaauto.id/internal/obs"
)

// Authenticator coordinates login and refresh-token exchange.
type Authenticator struct {
	accounts  AccountFinder
	employees EmployeeDirectory
	tokens    *TokenService
	log       *slog.Logger
}

// NewAuthenticator wires the credential store and token service. employees may be nil.
func NewAuthenticator(accounts AccountFinder, employees EmployeeDirectory, tokens *TokenService) *Authenticator {
	return &Authenticator{
		accounts:  accounts,
		employees: employees,
		tokens:    tokens,
		log:       obs.Logger().With("component", "auth"),
	}
}

// Tokens exposes the underlying token service.
func (a *Authenticator) Tokens() *TokenService { return a.tokens }

// Login checks credentials and issues a token pair. An inactive account fails
// with ErrAccountInactive before the password is compared.
func (a *Authenticator) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		obs.ObserveLogin("invalid_credentials")
		return LoginResponse{}, ErrInvalidCredentials
	}
	acct, err := a.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.ObserveLogin("invalid_credentials")
			return LoginResponse{}, ErrInvalidCredentials
		}
		obs.ObserveLogin("error")
		return LoginResponse{}, fmt.Errorf("lookup account: %w", err)
	}
	if !acct.CanAuthenticate() {
		obs.ObserveLogin("inactive")
		return LoginResponse{}, ErrAccountInactive
	}
	if err := VerifyPassword(acct.PasswordHash, password); err != nil {
		obs.ObserveLogin("invalid_credentials")
		return LoginResponse{}, ErrInvalidCredentials
	}
	resp, err := a.issue(ctx, acct)
	if err != nil {
		obs.ObserveLogin("error")
		return LoginResponse{}, err
	}
	obs.ObserveLogin("success")
	return resp, nil
}

// Refresh exchanges a refresh token for a new token pair. The presented
// token is not tracked and stays usable until it expires.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	username, ok := a.tokens.ValidateRefreshToken(refreshToken)
	if !ok {
		obs.ObserveRefresh("invalid_token")
		return LoginResponse{}, ErrInvalidOrExpiredToken
	}
	acct, err := a.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.ObserveRefresh("user_not_found")
			return LoginResponse{}, ErrUserNotFound
		}
		obs.ObserveRefresh("error")
		return LoginResponse{}, fmt.Errorf("lookup account: %w", err)
	}
	if !acct.CanAuthenticate() {
		obs.ObserveRefresh("inactive")
		return LoginResponse{}, ErrAccountInactive
	}
	resp, err := a.issue(ctx, acct)
	if err != nil {
		obs.ObserveRefresh("error")
		return LoginResponse{}, err
	}
	obs.ObserveRefresh("success")
	return resp, nil
}

// CurrentUser projects verified access-token claims.
func (a *Authenticator) CurrentUser(claims *AccessClaims) UserInfo {
	return UserInfoFromClaims(claims)
}

func (a *Authenticator) issue(ctx context.Context, acct *Account) (LoginResponse, error) {
	a.enrich(ctx, acct)
	access, err := a.tokens.IssueAccessToken(ctx, acct)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, err := a.tokens.IssueRefreshToken(acct)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		Token:        access,
		RefreshToken: refresh,
		Username:     acct.Username,
		Email:        acct.Email,
		ExpiresIn:    a.tokens.TokenExpirySeconds(),
	}, nil
}

// enrich copies the linked employee onto acct. Lookup failures are not errors.
func (a *Authenticator) enrich(ctx context.Context, acct *Account) {
	if a.employees == nil {
		return
	}
	emp, err := a.employees.EmployeeForUsername(ctx, acct.Username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Warn("employee lookup failed", "username", acct.Username, "error", err.Error())
		}
		return
	}
	if emp == nil {
		return
	}
	id := emp.ID
	acct.EmployeeID = &id
	acct.EmployeeName = emp.Name
}
