package auth

import "time"

// AuthMethod indicates how authentication was performed.
type AuthMethod string

// AuthMethodAccessToken is a machine-account access token exchanged upstream.
const AuthMethodAccessToken AuthMethod = "access_token"

// Identity represents an authenticated machine account.
type Identity struct {
	// Principal is the unique identifier of the account.
	Principal string

	// TenantID is the organization the account belongs to.
	TenantID string

	// Permissions are the scopes granted to the token.
	Permissions []string

	// Method indicates how authentication was performed.
	Method AuthMethod

	// Claims contains the raw claims from the token.
	Claims map[string]any

	// ExpiresAt is when this identity expires.
	ExpiresAt time.Time

	// IssuedAt is when this identity was created.
	IssuedAt time.Time
}

// IsExpired reports whether the identity's expiry has passed. A nil identity
// or one without an expiry never expires.
func (id *Identity) IsExpired() bool {
	if id == nil || id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}
