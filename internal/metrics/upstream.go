package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantdesk_upstream_requests_total",
			Help: "Total number of calls to external services",
		},
		[]string{"service", "operation", "outcome"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grantdesk_upstream_request_duration_seconds",
			Help:    "External service call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	cachedRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grantdesk_cached_records",
			Help: "Number of records held in the dashboard cache",
		},
		[]string{"collection"},
	)
)

// ObserveUpstream records one call to an external service. outcome is
// "success" or the error kind of the failure.
func ObserveUpstream(service, operation, outcome string, start time.Time) {
	upstreamRequestsTotal.WithLabelValues(service, operation, outcome).Inc()
	upstreamRequestDuration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
}

// SetCachedRecords publishes the size of a cached collection.
func SetCachedRecords(collection string, n int) {
	cachedRecords.WithLabelValues(collection).Set(float64(n))
}
