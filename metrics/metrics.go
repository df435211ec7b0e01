// Package metrics provides Prometheus metrics for the pediatric dosing API.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Domain metrics:
//   - dose_calculations_total: Counter with outcome label (valid, rejected_<stage>)
//   - dose_caps_total: Counter with scope label (daily, per_dose)
//   - dose_cache_requests_total: Counter with result label (hit, miss)
//   - catalog_medications: Gauge with the number of loaded medications
//   - catalog_reloads_total: Counter with status label (success, failed, skipped)
//
// All metrics are registered with the Prometheus default registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (one per client IP)",
		},
	)

	DoseCalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_calculations_total",
			Help: "Dose calculations by outcome",
		},
		[]string{"outcome"},
	)

	DoseCapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_caps_total",
			Help: "Doses reduced to a max-dose ceiling",
		},
		[]string{"scope"},
	)

	DoseCacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_cache_requests_total",
			Help: "Calculation cache lookups by result",
		},
		[]string{"result"},
	)

	CatalogMedications = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_medications",
			Help: "Number of medications in the loaded catalog",
		},
	)

	CatalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reloads_total",
			Help: "Catalog reload attempts by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DoseCalculationsTotal)
	prometheus.MustRegister(DoseCapsTotal)
	prometheus.MustRegister(DoseCacheRequestsTotal)
	prometheus.MustRegister(CatalogMedications)
	prometheus.MustRegister(CatalogReloadsTotal)
}
