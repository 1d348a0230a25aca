package auth

import "errors"

var (
	// ErrUnauthorized is the single kind every authentication failure unwraps to.
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Authentication failures. Each carries the message shown to the caller and
// unwraps to ErrUnauthorized.
var (
	ErrInvalidCredentials    error = &authError{msg: "Invalid username or password"}
	ErrAccountInactive       error = &authError{msg: "User account is not active"}
	ErrInvalidOrExpiredToken error = &authError{msg: "Invalid or expired refresh token"}
	ErrUserNotFound          error = &authError{msg: "User not found"}
)

type authError struct {
	msg string
}

func (e *authError) Error() string { return e.msg }

func (e *authError) Unwrap() error { return ErrUnauthorized }
