package bitwarden

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"

	"github.com/jonwraymond/bwsproxy/secret"
)

const (
	accessTokenVersion = "0"
	accessTokenKeySize = 16
)

// AccessToken is a parsed machine-account access token of the form
//
//	0.<access token id>.<client secret>:<base64 encryption key>
type AccessToken struct {
	ID            uuid.UUID
	ClientSecret  string
	EncryptionKey []byte
}

// ParseAccessToken parses a machine-account access token.
// Failures are *secret.Error with KindAccessTokenInvalid.
func ParseAccessToken(s string) (*AccessToken, error) {
	first, key, ok := strings.Cut(s, ":")
	if !ok {
		return nil, secret.Errorf(secret.KindAccessTokenInvalid, "invalid format")
	}

	parts := strings.Split(first, ".")
	if len(parts) != 3 {
		return nil, secret.Errorf(secret.KindAccessTokenInvalid, "invalid format")
	}
	if parts[0] != accessTokenVersion {
		return nil, secret.Errorf(secret.KindAccessTokenInvalid, "wrong version")
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, secret.Errorf(secret.KindAccessTokenInvalid, "invalid uuid")
	}
	if parts[2] == "" {
		return nil, secret.Errorf(secret.KindAccessTokenInvalid, "missing client secret")
	}

	encKey, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, secret.Errorf(secret.KindAccessTokenInvalid, "invalid base64")
	}
	if len(encKey) != accessTokenKeySize {
		return nil, secret.Errorf(secret.KindAccessTokenInvalid,
			"invalid base64 length: expected %d, got %d", accessTokenKeySize, len(encKey))
	}

	return &AccessToken{
		ID:            id,
		ClientSecret:  parts[2],
		EncryptionKey: encKey,
	}, nil
}

// String hides the client secret and key.
func (t *AccessToken) String() string {
	return "AccessToken(" + t.ID.String() + ")"
}
