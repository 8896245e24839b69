package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warpscan_cache_hits_total",
			Help: "Total cache hits per entity kind",
		},
		[]string{"kind"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warpscan_cache_misses_total",
			Help: "Total cache misses per entity kind (absent, expired or disabled)",
		},
		[]string{"kind"},
	)

	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warpscan_backend_requests_total",
			Help: "Total backend requests by source and method",
		},
		[]string{"source", "method"},
	)

	BackendErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warpscan_backend_errors_total",
			Help: "Total backend failures by source and method",
		},
		[]string{"source", "method"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warpscan_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"source", "method"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warpscan_source_fallbacks_total",
			Help: "Times a read retried against the alternate data source",
		},
		[]string{"operation"},
	)

	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "warpscan_active_subscriptions",
			Help: "Number of live subscription tasks",
		},
	)

	SubscriptionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warpscan_subscription_events_total",
			Help: "Events emitted on the subscription stream by type",
		},
		[]string{"type"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warpscan_http_requests_total",
			Help: "Total HTTP API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warpscan_http_request_duration_seconds",
			Help:    "HTTP API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)
