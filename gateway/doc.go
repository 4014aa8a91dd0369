// Package gateway serves secrets over plain REST.
//
// A request names a secret by organization, project and secret id and
// carries a machine-account access token as its bearer credential. The
// Handler logs in upstream with that token, fetches the secret, checks it
// belongs to the named organization and returns a normalized response.
// Every failure maps to exactly one {code, message} envelope through
// Classify.
package gateway
