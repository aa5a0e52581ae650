package auth

import "errors"

// Authentication and authorisation errors.
var (
	// ErrInvalidCredentials covers every sign-in failure: unknown email,
	// inactive account and wrong secret all return it unchanged.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrForbidden          = errors.New("insufficient permissions")
)
