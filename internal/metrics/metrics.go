// Package metrics exposes Prometheus instrumentation for collection rounds.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for source outcomes and identification origins.
const (
	OutcomeOK      = "ok"
	OutcomeUnknown = "unknown"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"

	OriginHost   = "host"
	OriginClient = "client"
)

var (
	SourceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anchorprint_source_duration_seconds",
		Help:    "Time spent waiting for a signal source",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5},
	}, []string{"source"})

	SourceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchorprint_source_outcomes_total",
		Help: "Signal source results by outcome",
	}, []string{"source", "outcome"})

	CollectionRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anchorprint_collection_rounds_total",
		Help: "Completed collection rounds",
	})

	Identifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchorprint_identifications_total",
		Help: "Identifiers computed, by origin (host or client)",
	}, []string{"origin"})
)

// ObserveSource records one source result.
func ObserveSource(source, outcome string, seconds float64) {
	SourceDuration.WithLabelValues(source).Observe(seconds)
	SourceOutcomes.WithLabelValues(source, outcome).Inc()
}
