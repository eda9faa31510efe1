package service

import "errors"

var (
	// ErrInvalidCredentials covers a password mismatch. At the HTTP
	// boundary it is indistinguishable from ErrUserNotFound so that
	// responses never reveal which factor failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this email already exists")
	ErrAccountLocked      = errors.New("account is locked")
	ErrInvalidToken       = errors.New("refresh token not found")
	ErrTokenExpired       = errors.New("token has expired")
	// ErrTokenReused signals a refresh token that was already rotated
	// away or logged out. Treated as a possible token-theft indicator.
	ErrTokenReused      = errors.New("refresh token already used")
	ErrAlreadyRevoked   = errors.New("refresh token already revoked")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrInvalidRole      = errors.New("invalid role specified")
	// ErrInternal wraps persistence and other unexpected failures so
	// internals never leak to the caller.
	ErrInternal = errors.New("internal failure")
)
