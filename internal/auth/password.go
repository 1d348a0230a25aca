package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength applies to passwords set by operators, not to login attempts.
	MinPasswordLength = 8
	// maxPasswordBytes is where bcrypt stops reading input.
	maxPasswordBytes = 72
)

var (
	ErrWeakPassword    = errors.New("auth: password is too short")
	ErrPasswordTooLong = errors.New("auth: password exceeds 72 bytes")
	ErrMalformedHash   = errors.New("auth: malformed password hash")
)

// HashPassword returns the bcrypt hash stored in accounts.password_hash.
func HashPassword(password string) (string, error) {
	switch {
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return "", ErrWeakPassword
	case len(password) > maxPasswordBytes:
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckHash reports ErrMalformedHash unless hash is a bcrypt hash that
// VerifyPassword can compare against.
func CheckHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
	return nil
}

// VerifyPassword returns ErrInvalidCredentials on mismatch. An empty or
// malformed stored hash never matches.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
}
