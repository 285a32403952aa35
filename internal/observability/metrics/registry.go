// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch metrics track how the source page was obtained.
var (
	// FetchAttemptsTotal counts fetch attempts by strategy and outcome
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_attempts_total",
			Help: "Total number of page fetch attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// FetchAttemptDuration measures each fetch attempt in seconds
	FetchAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_attempt_duration_seconds",
			Help:    "Duration of page fetch attempts in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 45},
		},
		[]string{"strategy"},
	)

	// FetchBreakerState is the circuit breaker state per strategy:
	// 0 closed, 1 half-open, 2 open
	FetchBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fetch_breaker_state",
			Help: "Circuit breaker state per fetch strategy (0=closed, 1=half-open, 2=open)",
		},
		[]string{"strategy"},
	)

	// FetchBodyBytes measures the size of accepted page bodies
	FetchBodyBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fetch_body_bytes",
			Help:    "Size of accepted page bodies in bytes",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 8),
		},
	)
)

// Extraction metrics track selector fallback and candidate filtering.
var (
	// SelectorChosenTotal counts which selector won the fallback search
	SelectorChosenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extract_selector_chosen_total",
			Help: "Total number of extractions by winning selector",
		},
		[]string{"selector"},
	)

	// CandidatesSkippedTotal counts discarded candidates by reason
	CandidatesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extract_candidates_skipped_total",
			Help: "Total number of candidates discarded during extraction by reason",
		},
		[]string{"reason"},
	)
)

// Generation metrics track whole runs.
var (
	// GenerationRunsTotal counts generation runs by status (success, failure)
	GenerationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_runs_total",
			Help: "Total number of feed generation runs by status",
		},
		[]string{"status"},
	)

	// GenerationDuration measures generation runs in seconds
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Duration of feed generation runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	// PlaceholderRunsTotal counts runs that emitted the placeholder item
	PlaceholderRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_placeholder_runs_total",
			Help: "Total number of generation runs that emitted the placeholder item",
		},
	)

	// FeedItems reports the number of items in the last written feed
	FeedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_items",
			Help: "Number of items in the last written feed",
		},
	)

	// FeedLastWriteTimestamp records when the feed was last written
	FeedLastWriteTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_last_write_timestamp",
			Help: "Unix timestamp of the last successful feed write",
		},
	)
)
