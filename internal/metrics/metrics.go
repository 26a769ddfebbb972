// Package metrics provides Prometheus metric collection and exposition.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is the metric collection interface used by the service
// layer and the provider sync engine.
type MetricsCollector interface {
	RecordFeedRequest(outcome string)
	RecordFeedLatency(duration time.Duration)
	RecordFeedEvents(count int)
	RecordSyncSuccess()
	RecordSyncFailure()
	RecordEventsSynced(count int)
}

// Collector is the Prometheus-backed implementation.
type Collector struct {
	feedRequests *prometheus.CounterVec
	feedLatency  prometheus.Histogram
	feedEvents   prometheus.Counter
	syncSuccess  prometheus.Counter
	syncFailure  prometheus.Counter
	eventsSynced prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		feedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calsync_feed_requests_total",
			Help: "Feed requests by outcome (ok, not_found, unauthorized, forbidden, error).",
		}, []string{"outcome"}),
		feedLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "calsync_feed_generation_seconds",
			Help:    "Latency of personalised feed generation.",
			Buckets: prometheus.DefBuckets,
		}),
		feedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calsync_feed_events_emitted_total",
			Help: "Events emitted into generated feeds.",
		}),
		syncSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calsync_google_sync_success_total",
			Help: "Successful Google Calendar sync runs.",
		}),
		syncFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calsync_google_sync_failure_total",
			Help: "Failed Google Calendar sync runs.",
		}),
		eventsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calsync_google_events_synced_total",
			Help: "Events pushed to Google Calendar.",
		}),
	}

	reg.MustRegister(
		c.feedRequests,
		c.feedLatency,
		c.feedEvents,
		c.syncSuccess,
		c.syncFailure,
		c.eventsSynced,
	)

	return c
}

// RecordFeedRequest counts a feed request by outcome.
func (c *Collector) RecordFeedRequest(outcome string) {
	c.feedRequests.WithLabelValues(outcome).Inc()
}

// RecordFeedLatency records the duration of a feed generation.
func (c *Collector) RecordFeedLatency(duration time.Duration) {
	c.feedLatency.Observe(duration.Seconds())
}

// RecordFeedEvents counts events emitted into a generated feed.
func (c *Collector) RecordFeedEvents(count int) {
	c.feedEvents.Add(float64(count))
}

// RecordSyncSuccess counts a completed Google sync run.
func (c *Collector) RecordSyncSuccess() {
	c.syncSuccess.Inc()
}

// RecordSyncFailure counts a failed Google sync run.
func (c *Collector) RecordSyncFailure() {
	c.syncFailure.Inc()
}

// RecordEventsSynced counts events pushed to Google Calendar.
func (c *Collector) RecordEventsSynced(count int) {
	c.eventsSynced.Add(float64(count))
}

// Handler returns an HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns an HTTP handler serving the /metrics endpoint.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
