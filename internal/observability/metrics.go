package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	StoreTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venue_store_tx_seconds",
			Help:    "Duration of store transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	StoreConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venue_store_conflicts_total",
			Help: "Store commits rejected because a read key changed",
		},
	)

	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_transitions_total",
			Help: "Committed entity state transitions",
		},
		[]string{"entity", "to"},
	)

	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_rejections_total",
			Help: "Operations rejected by a business rule",
		},
		[]string{"reason"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_bus_notifications_total",
			Help: "Signals fanned out by the notification bus",
		},
		[]string{"kind"},
	)

	ForwardFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_event_forward_failures_total",
			Help: "Notifications an external sink failed to accept",
		},
		[]string{"sink"},
	)
)
