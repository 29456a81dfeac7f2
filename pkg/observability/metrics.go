// Package observability provides Prometheus metrics and HTTP middleware
// for the groovycheck client and the reference execution service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LatencyBuckets defines histogram buckets for submit/status round trips,
// ranging from 5ms to 30s.
var LatencyBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var (
	// RequestsTotal counts HTTP requests served by the reference service,
	// by method, status class, and route template.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groovycheck_service_requests_total",
			Help: "Total requests served",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records service request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groovycheck_service_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LatencyBuckets,
		},
		[]string{"method", "route"},
	)

	// JobsInFlight tracks submissions that have not reached a terminal status.
	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "groovycheck_service_jobs_in_flight",
			Help: "Submissions pending or in progress",
		},
	)

	// JobsTotal counts submissions by terminal status.
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groovycheck_service_jobs_total",
			Help: "Finished submissions",
		},
		[]string{"status"},
	)

	// AuthRejectedTotal counts requests rejected with 401, by reason.
	AuthRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groovycheck_service_auth_rejected_total",
			Help: "Authentication and ownership rejections",
		},
		[]string{"reason"},
	)

	// ClientRequestsTotal counts requests issued by the action client, by
	// endpoint ("submit" or "status") and HTTP status code.
	ClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groovycheck_client_requests_total",
			Help: "Client requests",
		},
		[]string{"endpoint", "code"},
	)

	// ClientRequestDuration records client round-trip latency in seconds.
	ClientRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groovycheck_client_request_duration_seconds",
			Help:    "Client round-trip latency",
			Buckets: LatencyBuckets,
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		JobsInFlight,
		JobsTotal,
		AuthRejectedTotal,
		ClientRequestsTotal,
		ClientRequestDuration,
	)
}
