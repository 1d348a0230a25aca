package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := ClaimsFromContext(ctx); ok {
		t.Fatal("unexpected claims in empty context")
	}
	claims := &AccessClaims{
		Groups:           []string{"user"},
		Permissions:      []string{"customers.read"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-7"},
	}
	ctx = ContextWithClaims(ctx, claims)

	name, ok := UsernameFromContext(ctx)
	if !ok || name != "user-7" {
		t.Fatalf("unexpected username: %q, ok=%v", name, ok)
	}
}

func TestClaimsAuthorization(t *testing.T) {
	user := &AccessClaims{Groups: []string{"user"}, Permissions: []string{Permission("Customers", ActionRead)}}
	if !user.Allows("customers.read") {
		t.Fatal("expected read permission")
	}
	if user.Allows("customers.write") {
		t.Fatal("unexpected write permission")
	}
	admin := &AccessClaims{Groups: []string{"ADMIN"}}
	if !admin.Allows("anything.write") {
		t.Fatal("admin must be allowed")
	}
	var none *AccessClaims
	if none.Allows("customers.read") {
		t.Fatal("nil claims must not be allowed")
	}
}
