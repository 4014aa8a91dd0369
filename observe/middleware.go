package observe

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Middleware wraps HTTP handlers with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a handler safe for concurrent use.
//   - Context: the server span is propagated through the request context.
//   - Ownership: request and response bodies are passed through without modification.
//   - Headers are never logged.
type Middleware struct {
	metrics  Metrics
	logger   Logger
	otelOpts []otelhttp.Option
}

// NewMiddleware creates a new Middleware with the given observability components.
// opts configure the otelhttp server instrumentation.
func NewMiddleware(metrics Metrics, logger Logger, opts ...otelhttp.Option) *Middleware {
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		metrics:  metrics,
		logger:   logger,
		otelOpts: opts,
	}
}

// Wrap wraps next with a server span named after route, request metrics
// labelled with route, and an access log entry.
func (m *Middleware) Wrap(route string, next http.Handler) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.Status()
		duration := time.Since(start)

		m.metrics.RecordRequest(r.Context(), route, status, duration)

		m.logger.Info(r.Context(), "request completed",
			Field{Key: "method", Value: r.Method},
			Field{Key: "route", Value: route},
			Field{Key: "path", Value: r.URL.Path},
			Field{Key: "status", Value: status},
			Field{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
		)
	})

	return otelhttp.NewHandler(inner, route, m.otelOpts...)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(metrics, obs.Logger(),
		otelhttp.WithTracerProvider(obs.TracerProvider()),
		otelhttp.WithMeterProvider(obs.MeterProvider()),
	), nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Status returns the written status, or 200 if the handler wrote nothing.
func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
