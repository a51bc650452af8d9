package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Backend API metrics
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_backend_requests_total",
			Help: "Total number of requests sent to the accounts backend",
		},
		[]string{"operation", "status"}, // status: HTTP code or "error"
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_backend_request_duration_seconds",
			Help:    "Accounts backend request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// User action metrics
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_actions_total",
			Help: "User-initiated actions by kind and outcome",
		},
		[]string{"action", "status"}, // action: upload, transfer, delete_all
	)

	// SupersededTotal counts searches and page fetches dropped for a newer one.
	SupersededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_superseded_total",
			Help: "Requests discarded because a newer request replaced them",
		},
		[]string{"kind"}, // search, accounts_fetch, account_fetch
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_active_sessions",
			Help: "Number of live browser sessions",
		},
	)

	ActivityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_activity_events_total",
			Help: "Activity events written per sink",
		},
		[]string{"sink", "status"},
	)
)
