package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeMalformed   = "malformed"
	OutcomeUnavailable = "unavailable"
	OutcomeSkipped     = "skipped"
)

var (
	PlacesRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_requests_total",
			Help: "Total number of place provider requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	PlacesRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "places_request_duration_seconds",
			Help:    "Duration of place provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SearchAugmentations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_augmentations_total",
			Help: "Nearby-search augmentation attempts by outcome",
		},
		[]string{"outcome"},
	)

	CafesImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cafes_imported_total",
			Help: "Cafes written to the directory by source",
		},
		[]string{"source"},
	)
)
