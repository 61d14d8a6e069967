package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leetsync_api_request_duration_seconds",
			Help:    "API request duration in seconds by operation",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"operation", "status"},
	)

	apiRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leetsync_api_retries_total",
			Help: "Total API retry attempts by operation and reason",
		},
		[]string{"operation", "reason"}, // reason: "rate_limited" or "transient"
	)

	pacerWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leetsync_pacer_wait_duration_seconds",
			Help:    "Request pacer wait duration in seconds by operation",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"operation"},
	)

	itemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leetsync_items_total",
			Help: "Submissions handled per run by result",
		},
		[]string{"result"}, // "written", "unchanged", "no_header", "not_accepted", "failed"
	)
)

// Collector provides convenience methods for recording metrics.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// RecordRequest records one API request duration.
func (c *Collector) RecordRequest(operation string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	apiRequestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (c *Collector) RecordRetry(operation string, rateLimited bool) {
	reason := "transient"
	if rateLimited {
		reason = "rate_limited"
	}
	apiRetries.WithLabelValues(operation, reason).Inc()
}

// RecordPacerWait records time spent waiting on the request pacer.
func (c *Collector) RecordPacerWait(operation string, duration time.Duration) {
	pacerWaitDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordItem records the outcome of one handled submission.
func (c *Collector) RecordItem(result string) {
	itemsProcessed.WithLabelValues(result).Inc()
}
