package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFAInvalid         = errors.New("invalid mfa code")
	ErrMFANotConfigured   = errors.New("mfa setup required")
	ErrSessionExpired     = errors.New("session expired")
)
