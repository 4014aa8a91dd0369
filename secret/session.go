package secret

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonwraymond/bwsproxy/auth"
)

// Session is an authenticated conversation with the upstream platform.
//
// Contract:
// - Concurrency: a Session belongs to one request and is not shared.
// - Context: methods must honor cancellation/deadlines.
// - Errors: failures are returned as *Error so they can be classified.
// - Secrets: implementations must not log the access token or secret values.
type Session interface {
	// Login authenticates the session with a caller-supplied access token.
	Login(ctx context.Context, accessToken string) (*auth.Identity, error)

	// Get fetches and decrypts a secret by id. Login must succeed first.
	Get(ctx context.Context, id uuid.UUID) (*Secret, error)
}

// SessionFactory creates a fresh, unauthenticated Session.
type SessionFactory func() Session
