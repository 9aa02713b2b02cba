package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaign_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Workflow Metrics
	WorkflowOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_workflow_operations_total",
			Help: "Workflow operations by outcome (ok, invalid, denied, not_found, conflict, error)",
		},
		[]string{"operation", "outcome"},
	)

	// Live subscription Metrics
	FeedSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "campaign_feed_subscribers",
			Help: "Open live subscriptions per collection",
		},
		[]string{"collection"},
	)

	FeedSnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_feed_snapshots_total",
			Help: "Snapshots delivered to live subscribers",
		},
		[]string{"collection"},
	)

	// Event Metrics
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_events_published_total",
			Help: "Workflow events handed to the message broker",
		},
		[]string{"type", "status"},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordOperation counts one workflow call.
func RecordOperation(operation, outcome string) {
	WorkflowOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// TrackSubscriber bumps the subscriber gauge and returns the matching decrement.
func TrackSubscriber(collection string) func() {
	g := FeedSubscribers.WithLabelValues(collection)
	g.Inc()
	return g.Dec
}

func RecordSnapshot(collection string) {
	FeedSnapshotsTotal.WithLabelValues(collection).Inc()
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(eventType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
