// Package metrics provides Prometheus metrics for the scan loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dropwatch"

// Metrics holds all Prometheus metrics for a scan loop.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion
	PostsFetched *prometheus.CounterVec
	FetchErrors  *prometheus.CounterVec
	PostsNew     prometheus.Counter

	// Extraction
	PostsProcessed     prometheus.Counter
	CandidatesBuilt    *prometheus.CounterVec
	InsufficientSignal prometheus.Counter
	AnnotationFailures prometheus.Counter
	ConfidenceScore    prometheus.Histogram

	// Notification
	Notifications *prometheus.CounterVec

	// Cycle
	CycleDuration prometheus.Histogram
	LastSuccess   prometheus.Gauge
}

// New creates a Metrics instance registered on its own registry, so several
// instances can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PostsFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "posts_fetched_total",
			Help:      "Total number of posts fetched by source",
		}, []string{"source"}),
		FetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed source fetches",
		}, []string{"source"}),
		PostsNew: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "posts_new_total",
			Help:      "Total number of fetched posts not seen before",
		}),

		PostsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "posts_processed_total",
			Help:      "Total number of posts run through the extraction engine",
		}),
		CandidatesBuilt: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "candidates_built_total",
			Help:      "Total number of opportunity candidates built by kind",
		}, []string{"kind"}),
		InsufficientSignal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "insufficient_signal_total",
			Help:      "Total number of posts naming neither a project nor a token",
		}),
		AnnotationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "annotation_failures_total",
			Help:      "Total number of posts whose annotation failed",
		}),
		ConfidenceScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "confidence_score",
			Help:      "Distribution of candidate confidence scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total number of notification deliveries by channel and status",
		}, []string{"channel", "status"}),

		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycle_duration_seconds",
			Help:      "Scan cycle duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last completed scan cycle",
		}),
	}
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordNotification counts one delivery attempt on channel.
func (m *Metrics) RecordNotification(channel string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.Notifications.WithLabelValues(channel, status).Inc()
}

// RecordCycle records a completed cycle that started at start.
func (m *Metrics) RecordCycle(start time.Time) {
	m.CycleDuration.Observe(time.Since(start).Seconds())
	m.LastSuccess.SetToCurrentTime()
}
