package gateway

import (
	"encoding/json"
	"errors"

	"github.com/jonwraymond/bwsproxy/secret"
)

// Classify maps an upstream failure to its envelope.
//
// Classes the caller can correct forward the cause detail. Classes that
// could disclose internals return a generic message; callers log the detail.
// Errors that are not a *secret.Error are defects and classify as internal.
func Classify(err error) *Error {
	var e *secret.Error
	if !errors.As(err, &e) {
		return ErrInternal
	}

	switch e.Kind {
	case secret.KindNotAuthenticated:
		return ErrUnauthorized
	case secret.KindVaultLocked:
		return ErrVaultLocked
	case secret.KindAccessTokenInvalid,
		secret.KindCrypto,
		secret.KindInvalidCipherString,
		secret.KindIdentityFail:
		return NewError(ErrUnauthorized.Code, e.Detail())
	case secret.KindInvalidResponse:
		return ErrInvalidResponse
	case secret.KindMissingFields:
		return ErrMissingFields
	case secret.KindTransport,
		secret.KindSerialization,
		secret.KindIO,
		secret.KindInvalidBase64,
		secret.KindDateParse,
		secret.KindStateInvalid,
		secret.KindInternal:
		return ErrInternal
	case secret.KindResponseContent:
		return passThrough(e.Status, e.Body)
	}

	// Out-of-range Kind value.
	return ErrInternal
}

// passThrough relays an upstream status, preferring the body's "message".
func passThrough(status int, body string) *Error {
	if status < 100 || status > 599 {
		return ErrInternal
	}

	var payload struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && payload.Message != nil {
		return NewError(status, *payload.Message)
	}
	return NewError(status, body)
}
