package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

func TestRecordFeedRequest_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFeedRequest("ok")
	c.RecordFeedRequest("ok")
	c.RecordFeedRequest("not_found")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "calsync_feed_requests_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "ok":
					if val != 2 {
						t.Errorf("feed_requests_total{outcome=ok} = %v, want 2", val)
					}
				case "not_found":
					if val != 1 {
						t.Errorf("feed_requests_total{outcome=not_found} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("calsync_feed_requests_total metric not found")
	}
}

func TestRecordFeedLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFeedLatency(100 * time.Millisecond)
	c.RecordFeedLatency(2 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "calsync_feed_generation_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("calsync_feed_generation_seconds metric not found")
	}
}

func TestRecordFeedEvents_AddsToCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFeedEvents(10)
	c.RecordFeedEvents(5)

	if val := counterValue(t, reg, "calsync_feed_events_emitted_total"); val != 15 {
		t.Errorf("feed_events_emitted_total = %v, want 15", val)
	}
}

func TestRecordSyncOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSyncSuccess()
	c.RecordSyncSuccess()
	c.RecordSyncFailure()
	c.RecordEventsSynced(7)

	if val := counterValue(t, reg, "calsync_google_sync_success_total"); val != 2 {
		t.Errorf("sync_success_total = %v, want 2", val)
	}
	if val := counterValue(t, reg, "calsync_google_sync_failure_total"); val != 1 {
		t.Errorf("sync_failure_total = %v, want 1", val)
	}
	if val := counterValue(t, reg, "calsync_google_events_synced_total"); val != 7 {
		t.Errorf("events_synced_total = %v, want 7", val)
	}
}

func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFeedRequest("ok")
	c.RecordFeedLatency(500 * time.Millisecond)
	c.RecordFeedEvents(3)
	c.RecordSyncSuccess()

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"calsync_feed_requests_total",
		"calsync_feed_generation_seconds",
		"calsync_feed_events_emitted_total",
		"calsync_google_sync_success_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}

func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordSyncSuccess()
	c2.RecordSyncSuccess()
	c2.RecordSyncSuccess()

	if val := counterValue(t, reg1, "calsync_google_sync_success_total"); val != 1 {
		t.Errorf("reg1 sync_success = %v, want 1", val)
	}
	if val := counterValue(t, reg2, "calsync_google_sync_success_total"); val != 2 {
		t.Errorf("reg2 sync_success = %v, want 2", val)
	}
}
