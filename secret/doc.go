// Package secret defines the upstream secret capability used by the gateway.
//
// It provides:
//   - The Session capability an upstream client implements (see Session + SessionFactory)
//   - The decrypted upstream record (see Secret) and its request scope (see Identifier)
//   - The closed upstream failure taxonomy (see Kind + Error)
//   - Normalization of a record into the wire response (see Normalize + DecodeValue)
//
// Secret values are opaque strings upstream. DecodeValue reinterprets them as
// structured data when they parse as YAML (a superset of JSON) and keeps the
// raw string otherwise.
package secret
