package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_lookups_total", Help: "Response cache lookups by result"},
		[]string{"result"},
	)
	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rate_limit_rejections_total", Help: "Requests rejected by a rate limiter"},
		[]string{"limiter"},
	)
)

// MustRegister adds every collector to reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(RequestsTotal, ReqDuration, InFlight, CacheLookups, RateLimitRejections)
}
