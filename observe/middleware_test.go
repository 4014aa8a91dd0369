package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type middlewareHarness struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
	mw     *Middleware
}

func newMiddlewareHarness(t *testing.T) *middlewareHarness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	reader, metrics := newTestMetrics(t)
	logs := &bytes.Buffer{}

	return &middlewareHarness{
		spans:  spans,
		reader: reader,
		logs:   logs,
		mw: NewMiddleware(metrics, NewLoggerWithWriter("info", logs),
			otelhttp.WithTracerProvider(tp),
		),
	}
}

// TestMiddleware_SuccessPath verifies a served request records telemetry.
func TestMiddleware_SuccessPath(t *testing.T) {
	h := newMiddlewareHarness(t)

	handler := h.mw.Wrap("/_health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "Ok" {
		t.Errorf("response = %d %q, want 200 Ok", rec.Code, rec.Body.String())
	}

	spans := h.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("SpanKind() = %v, want server", spans[0].SpanKind())
	}

	rm := collect(t, h.reader)
	if got := sumValue(t, rm, "bwsproxy.requests.total"); got != 1 {
		t.Errorf("requests.total = %d, want 1", got)
	}

	var entry map[string]any
	if err := json.Unmarshal(h.logs.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse access log: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["route"] != "/_health" || entry["method"] != "GET" {
		t.Errorf("route/method = %v %v", entry["route"], entry["method"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
}

// TestMiddleware_ErrorStatus verifies error statuses are recorded.
func TestMiddleware_ErrorStatus(t *testing.T) {
	h := newMiddlewareHarness(t)

	handler := h.mw.Wrap("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusInternalServerError) // ignored by net/http
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	rm := collect(t, h.reader)
	if got := sumValue(t, rm, "bwsproxy.requests.errors"); got != 1 {
		t.Errorf("requests.errors = %d, want 1", got)
	}
	if !strings.Contains(h.logs.String(), `"status":404`) {
		t.Errorf("access log = %s, want status 404", h.logs.String())
	}
}

// TestMiddleware_PropagatesContext verifies the handler sees the server span.
func TestMiddleware_PropagatesContext(t *testing.T) {
	h := newMiddlewareHarness(t)

	var inner trace.SpanContext
	handler := h.mw.Wrap("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !inner.IsValid() {
		t.Fatal("handler context should carry a valid span")
	}
	if inner.SpanID() != h.spans.Ended()[0].SpanContext().SpanID() {
		t.Error("handler span should be the server span")
	}
}

// TestMiddleware_HeadersNotLogged verifies credentials in headers never reach logs.
func TestMiddleware_HeadersNotLogged(t *testing.T) {
	h := newMiddlewareHarness(t)
	handler := h.mw.Wrap("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer very-secret-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if strings.Contains(h.logs.String(), "very-secret-token") {
		t.Errorf("access log leaks credentials: %s", h.logs.String())
	}
}

// TestMiddleware_DisabledNoop verifies a middleware built from a disabled observer works.
func TestMiddleware_DisabledNoop(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "test"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}

	handler := mw.Wrap("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
