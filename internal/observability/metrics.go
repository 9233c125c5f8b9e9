package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "adile"

var (
	RideTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_transitions_total", Help: "Ride status changes by destination status"},
		[]string{"status"},
	)
	RideConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_conflicts_total", Help: "Version conflicts and lost acceptance races"},
		[]string{"operation", "outcome"},
	)
	DispatchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "dispatch_duration_seconds", Help: "Dispatcher operation latency", Buckets: prometheus.DefBuckets},
		[]string{"operation"},
	)
	PlaceSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "place_searches_total", Help: "Place searches by result source"},
		[]string{"source"},
	)
	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "event_publish_failures_total", Help: "Ride events that could not be published"},
	)
	DriverPositionUpdates = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "driver_position_updates_total", Help: "Driver position reports accepted"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
