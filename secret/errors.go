package secret

import (
	"errors"
	"fmt"
)

// Kind identifies an upstream failure cause.
//
// The set is closed: add a cause by adding a Kind here and a branch to every
// exhaustive switch over Kind.
type Kind int

const (
	// KindInternal is an unclassified internal failure.
	KindInternal Kind = iota
	// KindNotAuthenticated means the session has not logged in.
	KindNotAuthenticated
	// KindVaultLocked means the session holds no key for the secret's organization.
	KindVaultLocked
	// KindAccessTokenInvalid means the access token could not be parsed.
	KindAccessTokenInvalid
	// KindInvalidResponse means the upstream answered with something unusable.
	KindInvalidResponse
	// KindMissingFields means a required field was absent upstream.
	KindMissingFields
	// KindCrypto is a key, MAC or padding failure.
	KindCrypto
	// KindInvalidCipherString means an encrypted string was malformed.
	KindInvalidCipherString
	// KindIdentityFail means the identity provider rejected the login.
	KindIdentityFail
	// KindTransport means the call to the upstream failed.
	KindTransport
	// KindSerialization is a JSON encode/decode failure.
	KindSerialization
	// KindIO is a local I/O failure.
	KindIO
	// KindInvalidBase64 means a base64 payload did not decode.
	KindInvalidBase64
	// KindDateParse means an upstream timestamp did not parse.
	KindDateParse
	// KindResponseContent is a structured upstream error with its own status.
	KindResponseContent
	// KindStateInvalid means persisted session state was unusable.
	KindStateInvalid
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{
	KindInternal,
	KindNotAuthenticated,
	KindVaultLocked,
	KindAccessTokenInvalid,
	KindInvalidResponse,
	KindMissingFields,
	KindCrypto,
	KindInvalidCipherString,
	KindIdentityFail,
	KindTransport,
	KindSerialization,
	KindIO,
	KindInvalidBase64,
	KindDateParse,
	KindResponseContent,
	KindStateInvalid,
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindNotAuthenticated:
		return "not_authenticated"
	case KindVaultLocked:
		return "vault_locked"
	case KindAccessTokenInvalid:
		return "access_token_invalid"
	case KindInvalidResponse:
		return "invalid_response"
	case KindMissingFields:
		return "missing_fields"
	case KindCrypto:
		return "crypto"
	case KindInvalidCipherString:
		return "invalid_cipher_string"
	case KindIdentityFail:
		return "identity_fail"
	case KindTransport:
		return "transport"
	case KindSerialization:
		return "serialization"
	case KindIO:
		return "io"
	case KindInvalidBase64:
		return "invalid_base64"
	case KindDateParse:
		return "date_parse"
	case KindResponseContent:
		return "response_content"
	case KindStateInvalid:
		return "state_invalid"
	default:
		return "unknown"
	}
}

// Error is an upstream failure tagged with its Kind.
type Error struct {
	// Kind is the failure cause.
	Kind Kind

	// Status is the upstream HTTP status (KindResponseContent only).
	Status int

	// Body is the raw upstream response body (KindResponseContent only).
	Body string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	switch {
	case e.Kind == KindResponseContent:
		return fmt.Sprintf("secret: upstream responded %d: %s", e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("secret: %s: %v", e.Kind, e.Err)
	default:
		return "secret: " + e.Kind.String()
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the cause message without the package prefix.
func (e *Error) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf creates an Error of the given kind with a formatted cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ResponseContentError creates an Error for an upstream status/body pair.
func ResponseContentError(status int, body string) *Error {
	return &Error{Kind: KindResponseContent, Status: status, Body: body}
}

// KindOf returns the Kind carried by err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Sentinel errors for identifier handling.
var (
	ErrInvalidIdentifier = errors.New("secret: invalid identifier")
)
