package auth

import "errors"

// Sentinel kinds for auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("missing required role")
	ErrMissingSecret      = errors.New("jwt secret is required")
)
