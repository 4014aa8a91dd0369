package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the {code, message} envelope written for every failed request.
// Code mirrors the HTTP status.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %d %s", e.Code, e.Message)
}

// NewError creates an envelope with an explicit message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// StatusError creates an envelope carrying the standard status text.
func StatusError(code int) *Error {
	return &Error{Code: code, Message: http.StatusText(code)}
}

// Fixed envelopes.
var (
	ErrBadRequest       = StatusError(http.StatusBadRequest)
	ErrUnauthorized     = StatusError(http.StatusUnauthorized)
	ErrNotFound         = StatusError(http.StatusNotFound)
	ErrMethodNotAllowed = StatusError(http.StatusMethodNotAllowed)
	ErrInternal         = StatusError(http.StatusInternalServerError)
	ErrVaultLocked      = NewError(http.StatusLocked, "Vault Locked")
	ErrInvalidResponse  = NewError(http.StatusUnprocessableEntity, "Invalid Response")
	ErrMissingFields    = NewError(http.StatusUnprocessableEntity, "Missing Fields")
)

// Configuration errors.
var (
	// ErrNoSessionFactory indicates Config.Sessions is nil.
	ErrNoSessionFactory = errors.New("gateway: session factory is required")
)
