package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/jonwraymond/bwsproxy/auth"
	"github.com/jonwraymond/bwsproxy/health"
	"github.com/jonwraymond/bwsproxy/observe"
	"github.com/jonwraymond/bwsproxy/secret"
)

// Route patterns. They double as the route label on spans and metrics.
const (
	SecretRoute   = "/{organizationId}/{projectId}/secret/{secretId}"
	HealthRoute   = health.Path
	MetricsRoute  = "/metrics"
	FallbackRoute = "/"
)

// ErrNoHandler indicates RouterConfig.Handler is nil.
var ErrNoHandler = errors.New("gateway: handler is required")

// RouterConfig configures the primary listener's routes.
type RouterConfig struct {
	// Handler serves secret requests. Required.
	Handler *Handler

	// Middleware instruments every route.
	// Default: a middleware that records nothing.
	Middleware *observe.Middleware

	// Metrics, when set, is mounted at MetricsRoute.
	Metrics http.Handler
}

// NewRouter returns the primary listener's handler.
//
// Routes:
//   - GET SecretRoute: the normalized secret, or an error envelope.
//   - GET HealthRoute: 200 "Ok".
//   - GET MetricsRoute: only when cfg.Metrics is set.
//   - anything else: 404 envelope.
//
// Other methods on a known route get a 405 envelope with "Allow: GET".
// Non-canonical paths ("//x", "/a/../b") get the 404 envelope rather than
// a redirect.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Handler == nil {
		return nil, ErrNoHandler
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NewMiddleware(nil, nil)
	}
	mw := cfg.Middleware

	mux := http.NewServeMux()
	mux.Handle(SecretRoute, mw.Wrap(SecretRoute, getOnly(secretHandler(cfg.Handler))))
	mux.Handle(HealthRoute, mw.Wrap(HealthRoute, getOnly(health.LivenessHandler())))
	if cfg.Metrics != nil {
		mux.Handle(MetricsRoute, mw.Wrap(MetricsRoute, getOnly(cfg.Metrics)))
	}
	fallback := mw.Wrap(FallbackRoute, http.HandlerFunc(notFound))
	mux.Handle(FallbackRoute, fallback)

	return canonical(mux, fallback), nil
}

// canonical sends requests whose path is not in clean form to notFound
// instead of letting the mux redirect them.
func canonical(next, notFound http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; p != cleanPath(p) {
			notFound.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cleanPath mirrors ServeMux's canonical form: rooted, no "." or ".."
// elements, no repeated slashes, trailing slash preserved.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	np := path.Clean(p)
	if strings.HasSuffix(p, "/") && np != "/" {
		np += "/"
	}
	return np
}

// getOnly answers any method but GET with a 405 envelope.
func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, ErrMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secretHandler(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := secret.ParseIdentifier(
			r.PathValue("organizationId"),
			r.PathValue("projectId"),
			r.PathValue("secretId"),
		)
		if err != nil {
			writeError(w, ErrBadRequest)
			return
		}

		token, err := auth.BearerFromRequest(r)
		if err != nil {
			writeError(w, ErrUnauthorized)
			return
		}

		resp, gwErr := h.GetSecret(r.Context(), id, token)
		if gwErr != nil {
			writeError(w, gwErr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, ErrNotFound)
}

func writeError(w http.ResponseWriter, e *Error) {
	writeJSON(w, e.Code, e)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
