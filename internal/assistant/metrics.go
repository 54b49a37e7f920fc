package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts routed queries.
	// Labels: kind, result (answered, fallback, rejected, error)
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryd",
			Subsystem: "assistant",
			Name:      "queries_total",
			Help:      "Total number of assistant queries by kind and result",
		},
		[]string{"kind", "result"},
	)

	// ChainAttemptsTotal counts individual provider trials.
	// Labels: provider, outcome (success, error, blank)
	ChainAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryd",
			Subsystem: "chain",
			Name:      "attempts_total",
			Help:      "Total number of provider attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ChainFallbacksTotal counts queries answered with the fallback reply
	// after the whole chain was exhausted.
	ChainFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryd",
			Subsystem: "chain",
			Name:      "fallbacks_total",
			Help:      "Total number of queries answered with the fallback reply",
		},
		[]string{"kind"},
	)

	// BreakerTransitionsTotal counts circuit state changes.
	// Labels: key, to (closed, open, half_open)
	BreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryd",
			Subsystem: "breaker",
			Name:      "transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		},
		[]string{"key", "to"},
	)

	// BreakerRejectionsTotal counts calls refused before any provider ran.
	// Labels: reason (overload, open)
	BreakerRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryd",
			Subsystem: "breaker",
			Name:      "rejections_total",
			Help:      "Total number of calls rejected by the overload gate or an open circuit",
		},
		[]string{"reason"},
	)

	// ComplexityScore observes assessed query complexity.
	ComplexityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "queryd",
			Subsystem: "complexity",
			Name:      "score",
			Help:      "Distribution of assessed query complexity scores",
			Buckets:   []float64{1, 2, 3, 5, 7, 10, 15, 25, 50},
		},
	)

	// ScrubFindingsTotal counts secrets redacted from inbound query text.
	ScrubFindingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "queryd",
			Subsystem: "scrub",
			Name:      "findings_total",
			Help:      "Total number of secrets redacted from query text",
		},
	)
)

// RecordQueryResult records the terminal result of one query.
func RecordQueryResult(kind, result string) {
	QueriesTotal.WithLabelValues(kind, result).Inc()
}

// RecordChainAttempt records one provider trial.
func RecordChainAttempt(provider, outcome string) {
	ChainAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordChainFallback records one fallback reply.
func RecordChainFallback(kind string) {
	ChainFallbacksTotal.WithLabelValues(kind).Inc()
}

// RecordBreakerTransition records one circuit state change.
func RecordBreakerTransition(key, to string) {
	BreakerTransitionsTotal.WithLabelValues(key, to).Inc()
}

// RecordBreakerRejection records one call refused by the breaker.
func RecordBreakerRejection(reason string) {
	BreakerRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordComplexity records one assessed complexity score.
func RecordComplexity(score float64) {
	ComplexityScore.Observe(score)
}

// RecordScrubFindings records secrets redacted from one query.
func RecordScrubFindings(count int) {
	if count > 0 {
		ScrubFindingsTotal.Add(float64(count))
	}
}
