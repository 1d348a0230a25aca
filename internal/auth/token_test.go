package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func decodeSegment(t *testing.T, token string, idx int) string {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[idx])
	if err != nil {
		t.Fatalf("decode segment: %v", err)
	}
	return string(raw)
}

func craftToken(header, payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(header)) + "." + enc.EncodeToString([]byte(payload)) + "." + enc.EncodeToString([]byte("sig"))
}

func TestIssueAccessTokenEmbedsClaims(t *testing.T) {
	svc := newTestTokens(t, TokenConfig{Issuer: "test-issuer", AccessTTL: 2 * time.Hour})
	empID := int64(42)
	token, err := svc.IssueAccessToken(context.Background(), &Account{
		Username:     "carol",
		Email:        "carol@example.com",
		Roles:        []string{"Admin", "user", "admin"},
		Active:       true,
		EmployeeID:   &empID,
		EmployeeName: "Carol Danvers",
	})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Subject != "carol" || claims.UPN != "carol" || claims.Issuer != "test-issuer" {
		t.Fatalf("unexpected identity claims: %+v", claims)
	}
	if !slices.Equal(claims.Groups, []string{"admin", "user"}) {
		t.Fatalf("roles were not normalized: %v", claims.Groups)
	}
	if claims.EmployeeID == nil || *claims.EmployeeID != 42 || claims.EmployeeName != "Carol Danvers" {
		t.Fatalf("employee linkage missing: %+v", claims)
	}
	if claims.Permissions != nil {
		t.Fatalf("permissions must be absent without RBAC: %v", claims.Permissions)
	}
	lifetime := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	if lifetime != 2*time.Hour {
		t.Fatalf("unexpected lifetime %v", lifetime)
	}
}

func TestIssueAccessTokenOmitsMissingEmployee(t *testing.T) {
	svc := newTestTokens(t, TokenConfig{})
	token, err := svc.IssueAccessToken(context.Background(), &Account{Username: "dave", Active: true})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	payload := decodeSegment(t, token, 1)
	if strings.Contains(payload, "employeeId") || strings.Contains(payload, "employeeName") {
		t.Fatalf("employee fields must be omitted: %s", payload)
	}
}

func TestIssueAccessTokenWithRBACPermissions(t *testing.T) {
	resolver := &stubResolver{perms: []string{"employees.write", "employees.read", "employees.read"}}
	svc := newTestTokens(t, TokenConfig{RBACEnabled: true}, WithPermissionResolver(resolver))

	token, err := svc.IssueAccessToken(context.Background(), &Account{Username: "erin", Active: true})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if !slices.Equal(claims.Permissions, []string{"employees.read", "employees.write"}) {
		t.Fatalf("unexpected permissions: %v", claims.Permissions)
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolver call, got %d", resolver.calls)
	}
}

func TestIssueAccessTokenDegradesWhenResolverFails(t *testing.T) {
	resolver := &stubResolver{err: errResolverDown}
	svc := newTestTokens(t, TokenConfig{RBACEnabled: true}, WithPermissionResolver(resolver))

	token, err := svc.IssueAccessToken(context.Background(), &Account{Username: "frank", Active: true})
	if err != nil {
		t.Fatalf("issuance must not fail on resolver error: %v", err)
	}
	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if len(claims.Permissions) != 0 {
		t.Fatalf("expected no permissions, got %v", claims.Permissions)
	}
}

func TestRefreshTokenCarriesIdentityOnly(t *testing.T) {
	svc := newTestTokens(t, TokenConfig{})
	token, err := svc.IssueRefreshToken(&Account{Username: "gina", Roles: []string{"admin"}, Email: "g@example.com"})
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	payload := decodeSegment(t, token, 1)
	for _, literal := range []string{`"type":"refresh"`, `"exp":`, `"sub":"gina"`} {
		if !strings.Contains(payload, literal) {
			t.Fatalf("payload %s missing literal %s", payload, literal)
		}
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	for _, forbidden := range []string{"groups", "permissions", "email"} {
		if _, ok := raw[forbidden]; ok {
			t.Fatalf("refresh token must not carry %q", forbidden)
		}
	}
	if got, ok := svc.ValidateRefreshToken(token); !ok || got != "gina" {
		t.Fatalf("ValidateRefreshToken=%q,%v", got, ok)
	}
}

func TestRefreshTokenDefaultLifetime(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokens(t, TokenConfig{}, WithClock(fixedClock(now)))
	token, err := svc.IssueRefreshToken(&Account{Username: "hank"})
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal([]byte(decodeSegment(t, token, 1)), &claims); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := now.Add(7 * 24 * time.Hour).Unix(); claims.Exp != want {
		t.Fatalf("exp=%d, want %d", claims.Exp, want)
	}
	if svc.TokenExpirySeconds() != 24*3600 {
		t.Fatalf("default access lifetime should be 24h, got %ds", svc.TokenExpirySeconds())
	}
}

func TestValidateRefreshTokenRejects(t *testing.T) {
	now := time.Now()
	svc := newTestTokens(t, TokenConfig{})
	expired := newTestTokens(t, TokenConfig{RefreshTTL: time.Hour}, WithClock(fixedClock(now.Add(-2*time.Hour))))

	access, err := svc.IssueAccessToken(context.Background(), &Account{Username: "ivy", Active: true})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	stale, err := expired.IssueRefreshToken(&Account{Username: "ivy"})
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	cases := map[string]string{
		"empty":          "",
		"one dot":        "abc.def",
		"three dots":     "a.b.c.d",
		"garbage":        "not.a.token",
		"access token":   access,
		"expired":        stale,
		"no type marker": craftToken(`{"alg":"HS256","typ":"JWT"}`, `{"sub":"ivy","exp":9999999999}`),
		"wrong type":     craftToken(`{"alg":"HS256","typ":"JWT"}`, `{"sub":"ivy","type":"access","exp":9999999999}`),
		"no exp":         craftToken(`{"alg":"HS256","typ":"JWT"}`, `{"sub":"ivy","type":"refresh"}`),
	}
	for name, token := range cases {
		if user, ok := svc.ValidateRefreshToken(token); ok {
			t.Fatalf("%s: expected rejection, got %q", name, user)
		}
	}
}

func TestValidateRefreshTokenExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	issuer := newTestTokens(t, TokenConfig{RefreshTTL: time.Hour}, WithClock(fixedClock(issued)))
	token, err := issuer.IssueRefreshToken(&Account{Username: "jo"})
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	atExpiry := newTestTokens(t, TokenConfig{}, WithClock(fixedClock(issued.Add(time.Hour))))
	if _, ok := atExpiry.ValidateRefreshToken(token); ok {
		t.Fatal("token must be rejected when exp equals now")
	}
	before := newTestTokens(t, TokenConfig{}, WithClock(fixedClock(issued.Add(time.Hour-time.Second))))
	if _, ok := before.ValidateRefreshToken(token); !ok {
		t.Fatal("token must be accepted one second before expiry")
	}
}

func TestValidateRefreshTokenSignatureSwitch(t *testing.T) {
	forged := craftToken(`{"alg":"HS256","typ":"JWT"}`, `{"sub":"mallory","type":"refresh","exp":9999999999}`)

	lenient := newTestTokens(t, TokenConfig{VerifyRefreshSignature: false})
	if user, ok := lenient.ValidateRefreshToken(forged); !ok || user != "mallory" {
		t.Fatalf("structure-only validation should accept a well-formed payload, got %q,%v", user, ok)
	}

	strict := newTestTokens(t, TokenConfig{VerifyRefreshSignature: true})
	if _, ok := strict.ValidateRefreshToken(forged); ok {
		t.Fatal("signature verification must reject a forged token")
	}
	genuine, err := strict.IssueRefreshToken(&Account{Username: "mallory"})
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if _, ok := strict.ValidateRefreshToken(genuine); !ok {
		t.Fatal("signature verification must accept a genuine token")
	}
	other := newTestTokens(t, TokenConfig{Secret: "another-secret", VerifyRefreshSignature: true})
	if _, ok := other.ValidateRefreshToken(genuine); ok {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestParseAccessTokenRejectsRefreshAndForeignIssuer(t *testing.T) {
	svc := newTestTokens(t, TokenConfig{Issuer: "one"})
	refresh, err := svc.IssueRefreshToken(&Account{Username: "kim"})
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if _, err := svc.ParseAccessToken(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}

	foreign := newTestTokens(t, TokenConfig{Issuer: "two"})
	access, err := foreign.IssueAccessToken(context.Background(), &Account{Username: "kim"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := svc.ParseAccessToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign issuer accepted: %v", err)
	}
}

func TestUserInfoFromClaims(t *testing.T) {
	id := int64(7)
	info := UserInfoFromClaims(&AccessClaims{
		Groups:           []string{"user"},
		Email:            "lee@example.com",
		EmployeeID:       &id,
		EmployeeName:     "Lee",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "lee"},
	})
	if info.Username != "lee" || info.Email != "lee@example.com" || info.EmployeeName != "Lee" {
		t.Fatalf("unexpected projection: %+v", info)
	}
	if info.EmployeeID == nil || *info.EmployeeID != 7 {
		t.Fatalf("employee id lost: %+v", info)
	}
	if !slices.Equal(info.Roles, []string{"user"}) {
		t.Fatalf("roles lost: %v", info.Roles)
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(TokenConfig{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
