// Package auth extracts caller credentials and describes authenticated
// machine accounts.
//
// BearerFromRequest reads the access token a caller presents. Once that
// token has been exchanged upstream, IdentityFromAccessToken turns the
// returned JWT into an Identity, which travels with the request context via
// WithIdentity.
package auth
