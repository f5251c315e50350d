// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DirectionsLegs counts resolved legs by travel mode and the source that
	// produced them (relay, provider, synthetic, cache).
	DirectionsLegs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_directions_legs_total",
		Help: "Number of directions legs resolved, by mode and source",
	}, []string{"mode", "source"})

	// ItineraryGenerations counts planner outcomes.
	ItineraryGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_itinerary_generations_total",
		Help: "Number of itinerary requests, by outcome (generated or fallback reason)",
	}, []string{"outcome"})

	// DroppedPlaceIDs counts generated place ids that were not in the catalog.
	DroppedPlaceIDs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wayfarer_itinerary_dropped_place_ids_total",
		Help: "Number of generated place ids removed because they were not in the candidate catalog",
	})
)

var (
	// OutgoingLatency records upstream request latency in seconds.
	OutgoingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wayfarer_outgoing_request_duration_seconds",
		Help:    "Latency of outgoing HTTP requests to providers and the relay",
		Buckets: prometheus.DefBuckets,
	}, []string{"host", "method", "status"})
)

// RelayRequests counts relay calls by endpoint and upstream outcome.
var RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wayfarer_relay_requests_total",
	Help: "Number of relay requests, by endpoint and outcome",
}, []string{"endpoint", "outcome"})
