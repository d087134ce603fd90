// Package metrics defines the Prometheus collectors exported by the service.
//
// Collectors are registered on the default registry at init via promauto and
// served by promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SuggestionRequests counts suggestion requests by scoring mode and outcome.
	SuggestionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_requests_total",
			Help: "Total number of suggestion requests",
		},
		[]string{"mode", "outcome"},
	)

	// RankDuration tracks end-to-end suggestion latency, catalog fetch included.
	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suggestion_rank_duration_seconds",
			Help:    "Duration of suggestion ranking in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	// MissingEmbeddingFallbacks counts candidates scored with the fallback semantic score.
	MissingEmbeddingFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggestion_missing_embedding_fallbacks_total",
			Help: "Total number of candidates scored without an embedding",
		},
	)

	// EmbeddingRequests counts embedding calls by provider and outcome.
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding provider requests",
		},
		[]string{"provider", "outcome"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "embedding_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts state changes.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// CacheOperations counts suggestion cache reads and writes by result.
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_cache_operations_total",
			Help: "Total number of suggestion cache operations",
		},
		[]string{"op", "result"},
	)
)
