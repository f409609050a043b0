package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by route pattern.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grantdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grantdesk_http_requests_in_flight",
		Help: "Number of HTTP requests being served",
	})
)

// BeginHTTP marks a request as in flight. The returned func records it once
// the route and status are known.
func BeginHTTP() func(method, route string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
