package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names carried by upstream access tokens.
const (
	PrincipalClaim    = "sub"
	OrganizationClaim = "organization"
	ScopeClaim        = "scope"
)

// IdentityFromAccessToken reads the identity carried by an upstream-issued JWT.
//
// The signature is not verified. Only pass tokens received directly from the
// identity service.
func IdentityFromAccessToken(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingCredentials
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	identity := &Identity{
		Method: AuthMethodAccessToken,
		Claims: make(map[string]any, len(claims)),
	}
	for k, v := range claims {
		identity.Claims[k] = v
	}

	if principal, ok := claims[PrincipalClaim].(string); ok {
		identity.Principal = principal
	}
	if org, ok := claims[OrganizationClaim].(string); ok {
		identity.TenantID = org
	}
	identity.Permissions = stringList(claims[ScopeClaim])

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		identity.IssuedAt = iat.Time
	}

	return identity, nil
}

// stringList accepts a claim encoded either as a string or a list of strings.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
