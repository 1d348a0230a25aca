package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pazaauto.id/internal/obs"
)

const (
	DefaultIssuer     = "pazaauto-backoffice"
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenConfig is the immutable configuration of a TokenService.
type TokenConfig struct {
	Issuer      string
	Secret      string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RBACEnabled bool

	// VerifyRefreshSignature makes ValidateRefreshToken check the HMAC
	// signature in addition to structure, type marker and expiry.
	VerifyRefreshSignature bool
}

// AccessClaims are carried by access tokens.
type AccessClaims struct {
	UPN          string   `json:"upn,omitempty"`
	Groups       []string `json:"groups"`
	Email        string   `json:"email,omitempty"`
	EmployeeID   *int64   `json:"employeeId,omitempty"`
	EmployeeName string   `json:"employeeName,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
	Type         string   `json:"type"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens. They hold identity only.
type RefreshClaims struct {
	UPN  string `json:"upn,omitempty"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens.
type TokenService struct {
	cfg      TokenConfig
	secret   []byte
	resolver PermissionResolver
	now      func() time.Time
	log      *slog.Logger
}

// TokenOption configures TokenService behaviour.
type TokenOption func(*TokenService) error

// WithPermissionResolver sets the resolver consulted when RBAC is enabled.
func WithPermissionResolver(r PermissionResolver) TokenOption {
	return func(s *TokenService) error {
		s.resolver = r
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithLogger overrides the logger used for degraded issuance warnings.
func WithLogger(l *slog.Logger) TokenOption {
	return func(s *TokenService) error {
		if l != nil {
			s.log = l
		}
		return nil
	}
}

// NewTokenService validates cfg and constructs the service.
func NewTokenService(cfg TokenConfig, opts ...TokenOption) (*TokenService, error) {
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	svc := &TokenService{
		cfg:    cfg,
		secret: []byte(cfg.Secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Config returns a copy of the service configuration.
func (s *TokenService) Config() TokenConfig { return s.cfg }

// TokenExpirySeconds reports the access token lifetime in seconds.
func (s *TokenService) TokenExpirySeconds() int64 {
	return int64(s.cfg.AccessTTL / time.Second)
}

// IssueAccessToken signs an access token for acct. When RBAC is enabled the
// resolver's permissions are embedded; a resolver failure is logged and the
// token is issued without them.
func (s *TokenService) IssueAccessToken(ctx context.Context, acct *Account) (string, error) {
	if acct == nil || strings.TrimSpace(acct.Username) == "" {
		return "", errors.New("auth: account username is required")
	}
	now := s.now().UTC()
	claims := AccessClaims{
		UPN:    acct.Username,
		Groups: dedupeRoles(acct.Roles),
		Email:  acct.Email,
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   acct.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
			ID:        uuid.NewString(),
		},
	}
	if claims.Groups == nil {
		claims.Groups = []string{}
	}
	if acct.EmployeeID != nil {
		id := *acct.EmployeeID
		claims.EmployeeID = &id
	}
	if acct.EmployeeName != "" {
		claims.EmployeeName = acct.EmployeeName
	}
	if s.cfg.RBACEnabled {
		perms, err := s.fetchPermissions(ctx, acct.Username)
		if err != nil {
			obs.ObservePermissionFetchFailure()
			s.logger().Warn("could not fetch permissions, issuing token without them",
				"username", acct.Username, "error", err.Error())
		} else {
			claims.Permissions = perms
		}
	}
	return s.sign(claims)
}

func (s *TokenService) fetchPermissions(ctx context.Context, username string) ([]string, error) {
	if s.resolver == nil {
		return nil, errors.New("no permission resolver configured")
	}
	perms, err := s.resolver.PermissionsForUser(ctx, username)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := set[p]; ok {
			continue
		}
		set[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// IssueRefreshToken signs an identity-only refresh token for acct.
func (s *TokenService) IssueRefreshToken(acct *Account) (string, error) {
	if acct == nil || strings.TrimSpace(acct.Username) == "" {
		return "", errors.New("auth: account username is required")
	}
	now := s.now().UTC()
	claims := RefreshClaims{
		UPN:  acct.Username,
		Type: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   acct.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTTL)),
			ID:        uuid.NewString(),
		},
	}
	return s.sign(claims)
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateRefreshToken returns the subject of a usable refresh token. The
// token must have three segments, carry type "refresh" and expire strictly
// after now. The signature is checked only when VerifyRefreshSignature is set.
func (s *TokenService) ValidateRefreshToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return "", false
	}
	claims := &RefreshClaims{}
	if s.cfg.VerifyRefreshSignature {
		_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		)
		if err != nil {
			return "", false
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return "", false
		}
	}
	if claims.Type != tokenTypeRefresh {
		return "", false
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(s.now()) {
		return "", false
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", false
	}
	return subject, true
}

// ParseAccessToken verifies signature, issuer, expiry and token type. It is
// the transport layer's check before UserInfoFromClaims is trusted.
func (s *TokenService) ParseAccessToken(token string) (*AccessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &AccessClaims{}, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenTypeAccess {
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.Type)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// UserInfoFromClaims projects already verified claims. It does not validate.
func UserInfoFromClaims(claims *AccessClaims) UserInfo {
	if claims == nil {
		return UserInfo{Roles: []string{}}
	}
	info := UserInfo{
		Username:     claims.Subject,
		Email:        claims.Email,
		Roles:        append([]string{}, claims.Groups...),
		EmployeeName: claims.EmployeeName,
	}
	if claims.EmployeeID != nil {
		id := *claims.EmployeeID
		info.EmployeeID = &id
	}
	return info
}

func (s *TokenService) keyFunc(_ *jwt.Token) (any, error) {
	return s.secret, nil
}

func (s *TokenService) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return obs.Logger()
}
