package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/bwsproxy/auth"
	"github.com/jonwraymond/bwsproxy/observe"
	"github.com/jonwraymond/bwsproxy/resilience"
	"github.com/jonwraymond/bwsproxy/secret"
)

// Config configures a Handler.
type Config struct {
	// Sessions creates one upstream session per request. Required.
	Sessions secret.SessionFactory

	// Logger receives request and failure entries.
	// Default: a logger that discards everything.
	Logger observe.Logger

	// Tracer wraps each upstream call in a span.
	// Default: a tracer that records nothing.
	Tracer observe.Tracer

	// Timeout bounds the whole upstream exchange of one request.
	// Default: 30 seconds
	Timeout time.Duration
}

// Handler retrieves secrets on behalf of callers.
//
// Contract:
//   - Concurrency: safe for concurrent use; no state is shared between requests.
//   - Credentials: the bearer token is used for one upstream login and is never logged.
//   - Errors: every failure is returned as exactly one *Error.
type Handler struct {
	sessions secret.SessionFactory
	logger   observe.Logger
	tracer   observe.Tracer
	timeout  *resilience.Timeout
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Sessions == nil {
		return nil, ErrNoSessionFactory
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NopTracer()
	}

	return &Handler{
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
		tracer:   cfg.Tracer,
		timeout:  resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.Timeout}),
	}, nil
}

// GetSecret logs in with token, fetches the secret named by id and checks it
// belongs to id.OrganizationID.
//
// Any login failure, including an upstream identity that has already expired,
// is 401 "Unauthorized". A secret from another organization
// is 400 "Bad Request", indistinguishable from a malformed request. Fetch
// failures are classified with Classify. Exceeding the deadline is 500.
func (h *Handler) GetSecret(ctx context.Context, id secret.Identifier, token string) (*secret.Response, *Error) {
	logger := h.logger.With(
		observe.Field{Key: "organization_id", Value: id.OrganizationID.String()},
		observe.Field{Key: "project_id", Value: id.ProjectID.String()},
		observe.Field{Key: "secret_id", Value: id.SecretID.String()},
	)
	logger.Info(ctx, "get_secret request")

	resp, err := resilience.Call(ctx, h.timeout, func(ctx context.Context) (*secret.Response, error) {
		return h.getSecret(ctx, logger, id, token)
	})
	if err == nil {
		return resp, nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return nil, classified
	}

	// Deadline or cancellation: the upstream exchange did not complete.
	logger.Error(ctx, "get_secret error",
		observe.Field{Key: "kind", Value: secret.KindTransport.String()},
		observe.Field{Key: "status", Value: ErrInternal.Code},
		observe.Field{Key: "error", Value: err},
	)
	return nil, ErrInternal
}

// getSecret runs the login, fetch and scope check. Returned errors are either
// an *Error or the context's error.
func (h *Handler) getSecret(ctx context.Context, logger observe.Logger, id secret.Identifier, token string) (*secret.Response, error) {
	session := h.sessions()

	identity, err := h.login(ctx, session, token)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn(ctx, "login error",
			observe.Field{Key: "kind", Value: secret.KindOf(err).String()},
			observe.Field{Key: "error", Value: err},
		)
		return nil, ErrUnauthorized
	}
	if identity.IsExpired() {
		logger.Warn(ctx, "login error",
			observe.Field{Key: "kind", Value: secret.KindAccessTokenInvalid.String()},
			observe.Field{Key: "expires_at", Value: identity.ExpiresAt},
		)
		return nil, ErrUnauthorized
	}
	if identity != nil {
		ctx = auth.WithIdentity(ctx, identity)
		logger.Debug(ctx, "upstream identity established",
			observe.Field{Key: "principal", Value: auth.PrincipalFromContext(ctx)},
			observe.Field{Key: "tenant_id", Value: auth.TenantIDFromContext(ctx)},
		)
	}

	sec, err := h.fetch(ctx, session, id.SecretID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		classified := Classify(err)
		fields := []observe.Field{
			{Key: "kind", Value: secret.KindOf(err).String()},
			{Key: "status", Value: classified.Code},
			{Key: "error", Value: err},
		}
		if classified.Code >= 500 {
			logger.Error(ctx, "get_secret error", fields...)
		} else {
			logger.Warn(ctx, "get_secret error", fields...)
		}
		return nil, classified
	}

	if sec.OrganizationID != id.OrganizationID {
		logger.Warn(ctx, "organization mismatch",
			observe.Field{Key: "secret_organization_id", Value: sec.OrganizationID.String()},
		)
		return nil, ErrBadRequest
	}

	resp := secret.Normalize(sec)
	return &resp, nil
}

func (h *Handler) login(ctx context.Context, session secret.Session, token string) (*auth.Identity, error) {
	ctx, span := h.tracer.StartSpan(ctx, observe.Operation{Component: "upstream", Name: "login"})

	identity, err := session.Login(ctx, token)
	if err != nil {
		span.SetAttributes(attribute.String("secret.error_kind", secret.KindOf(err).String()))
	}
	h.tracer.EndSpan(span, err)
	return identity, err
}

func (h *Handler) fetch(ctx context.Context, session secret.Session, id uuid.UUID) (*secret.Secret, error) {
	ctx, span := h.tracer.StartSpan(ctx, observe.Operation{
		Component:  "upstream",
		Name:       "get_secret",
		Attributes: []attribute.KeyValue{attribute.String("secret.id", id.String())},
	})

	sec, err := session.Get(ctx, id)
	if err != nil {
		span.SetAttributes(attribute.String("secret.error_kind", secret.KindOf(err).String()))
	}
	h.tracer.EndSpan(span, err)
	return sec, err
}
