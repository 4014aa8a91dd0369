package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredentials
	}
	if len(header) < len(bearerPrefix) || strings.ToLower(header[:len(bearerPrefix)]) != bearerPrefix {
		return "", ErrNotBearer
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

// BearerFromRequest extracts the bearer token from r's Authorization header.
func BearerFromRequest(r *http.Request) (string, error) {
	return BearerToken(r.Header.Get("Authorization"))
}
