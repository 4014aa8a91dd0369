package observe

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*sdkmetric.ManualReader, Metrics) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return reader, m
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// sumValue returns the total of an int64 sum metric, or -1 if absent.
func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		return -1
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

// TestMetrics_TotalCounterIncrements verifies bwsproxy.requests.total is incremented.
func TestMetrics_TotalCounterIncrements(t *testing.T) {
	reader, m := newTestMetrics(t)

	m.RecordRequest(context.Background(), "/_health", 200, 5*time.Millisecond)

	rm := collect(t, reader)
	if got := sumValue(t, rm, "bwsproxy.requests.total"); got != 1 {
		t.Errorf("requests.total = %d, want 1", got)
	}
	if got := sumValue(t, rm, "bwsproxy.requests.errors"); got > 0 {
		t.Errorf("requests.errors = %d, want none", got)
	}
}

// TestMetrics_ErrorCounter verifies 4xx and 5xx count as errors.
func TestMetrics_ErrorCounter(t *testing.T) {
	reader, m := newTestMetrics(t)

	m.RecordRequest(context.Background(), "/", 404, time.Millisecond)
	m.RecordRequest(context.Background(), "/", 500, time.Millisecond)
	m.RecordRequest(context.Background(), "/", 204, time.Millisecond)

	rm := collect(t, reader)
	if got := sumValue(t, rm, "bwsproxy.requests.errors"); got != 2 {
		t.Errorf("requests.errors = %d, want 2", got)
	}
	if got := sumValue(t, rm, "bwsproxy.requests.total"); got != 3 {
		t.Errorf("requests.total = %d, want 3", got)
	}
}

// TestMetrics_DurationHistogramRecords verifies the duration histogram.
func TestMetrics_DurationHistogramRecords(t *testing.T) {
	reader, m := newTestMetrics(t)

	m.RecordRequest(context.Background(), "/_health", 200, 1500*time.Microsecond)

	found := findMetric(collect(t, reader), "bwsproxy.request.duration_ms")
	if found == nil {
		t.Fatal("bwsproxy.request.duration_ms metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
	}
	if hist.DataPoints[0].Sum != 1.5 {
		t.Errorf("sum = %v, want 1.5", hist.DataPoints[0].Sum)
	}
}

// TestMetrics_LabelsApplied verifies route and status attributes.
func TestMetrics_LabelsApplied(t *testing.T) {
	reader, m := newTestMetrics(t)

	m.RecordRequest(context.Background(), "/{organizationId}/{projectId}/secret/{secretId}", 429, time.Millisecond)

	found := findMetric(collect(t, reader), "bwsproxy.requests.total")
	if found == nil {
		t.Fatal("bwsproxy.requests.total metric not found")
	}
	dp := found.Data.(metricdata.Sum[int64]).DataPoints[0]

	route, ok := dp.Attributes.Value(attribute.Key("http.route"))
	if !ok || route.AsString() != "/{organizationId}/{projectId}/secret/{secretId}" {
		t.Errorf("http.route = %v", route.AsString())
	}
	status, ok := dp.Attributes.Value(attribute.Key("http.response.status_code"))
	if !ok || status.AsInt64() != 429 {
		t.Errorf("http.response.status_code = %v", status.AsInt64())
	}
}

// TestMetrics_ConcurrentRecording verifies concurrent recording is safe.
func TestMetrics_ConcurrentRecording(t *testing.T) {
	reader, m := newTestMetrics(t)

	const numGoroutines = 100
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			m.RecordRequest(context.Background(), "/_health", 200, time.Millisecond)
		}()
	}
	wg.Wait()

	if got := sumValue(t, collect(t, reader), "bwsproxy.requests.total"); got != numGoroutines {
		t.Errorf("requests.total = %d, want %d", got, numGoroutines)
	}
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
