package auth

import "errors"

// Sentinel errors for credential handling.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrNotBearer          = errors.New("auth: authorization scheme is not bearer")
	ErrTokenMalformed     = errors.New("auth: token malformed")
)
