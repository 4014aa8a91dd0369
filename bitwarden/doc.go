// Package bitwarden is a Bitwarden Secrets Manager client implementing
// secret.Session.
//
// A Client is one upstream session: it logs in with a machine-account access
// token against the identity service, unwraps the organization key from the
// login payload, and fetches and decrypts secrets from the API service.
//
// Clients are cheap and must not be shared between callers; create one per
// request with Settings.SessionFactory. Only the underlying *http.Client is
// shared.
//
// Every failure is a *secret.Error whose Kind follows the upstream SDK's
// error taxonomy.
package bitwarden
