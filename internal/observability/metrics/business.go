package metrics

import "time"

// RecordFetchAttempt records one fetch attempt. bytes is the body size when
// the attempt was accepted and is ignored otherwise.
func RecordFetchAttempt(strategy, outcome string, duration time.Duration, bytes int) {
	FetchAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
	FetchAttemptDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if outcome == "accepted" {
		FetchBodyBytes.Observe(float64(bytes))
	}
}

// RecordSelectorChosen records the selector that won the fallback search.
// An empty selector means no selector matched.
func RecordSelectorChosen(selector string) {
	if selector == "" {
		selector = "none"
	}
	SelectorChosenTotal.WithLabelValues(selector).Inc()
}

// RecordCandidatesSkipped records n discarded candidates for reason.
func RecordCandidatesSkipped(reason string, n int) {
	CandidatesSkippedTotal.WithLabelValues(reason).Add(float64(n))
}

// RecordGeneration records the outcome of a generation run.
func RecordGeneration(success bool, duration time.Duration, items int, placeholder bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	GenerationRunsTotal.WithLabelValues(status).Inc()
	GenerationDuration.Observe(duration.Seconds())

	if !success {
		return
	}
	FeedItems.Set(float64(items))
	FeedLastWriteTimestamp.SetToCurrentTime()
	if placeholder {
		PlaceholderRunsTotal.Inc()
	}
}

// RecordBreakerState sets the breaker gauge of strategy. state is the
// breaker's string form: "closed", "half-open" or "open".
func RecordBreakerState(strategy, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	FetchBreakerState.WithLabelValues(strategy).Set(v)
}
