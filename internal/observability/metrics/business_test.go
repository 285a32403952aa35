package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFetchAttempt(t *testing.T) {
	before := testutil.ToFloat64(FetchAttemptsTotal.WithLabelValues("direct", "accepted"))

	RecordFetchAttempt("direct", "accepted", 250*time.Millisecond, 48_000)

	after := testutil.ToFloat64(FetchAttemptsTotal.WithLabelValues("direct", "accepted"))
	assert.Equal(t, before+1, after)
}

func TestRecordFetchAttempt_Rejected(t *testing.T) {
	before := testutil.ToFloat64(FetchAttemptsTotal.WithLabelValues("allorigins", "too_small"))

	assert.NotPanics(t, func() {
		RecordFetchAttempt("allorigins", "too_small", time.Second, 0)
	})

	after := testutil.ToFloat64(FetchAttemptsTotal.WithLabelValues("allorigins", "too_small"))
	assert.Equal(t, before+1, after)
}

func TestRecordSelectorChosen(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		label    string
	}{
		{name: "article selector", selector: "article", label: "article"},
		{name: "no selector matched", selector: "", label: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(SelectorChosenTotal.WithLabelValues(tt.label))
			RecordSelectorChosen(tt.selector)
			assert.Equal(t, before+1, testutil.ToFloat64(SelectorChosenTotal.WithLabelValues(tt.label)))
		})
	}
}

func TestRecordCandidatesSkipped(t *testing.T) {
	before := testutil.ToFloat64(CandidatesSkippedTotal.WithLabelValues("short_title"))
	RecordCandidatesSkipped("short_title", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(CandidatesSkippedTotal.WithLabelValues("short_title")))
}

func TestRecordGeneration(t *testing.T) {
	t.Run("success with placeholder", func(t *testing.T) {
		before := testutil.ToFloat64(PlaceholderRunsTotal)

		RecordGeneration(true, 3*time.Second, 1, true)

		assert.Equal(t, before+1, testutil.ToFloat64(PlaceholderRunsTotal))
		assert.Equal(t, float64(1), testutil.ToFloat64(FeedItems))
	})

	t.Run("success with articles", func(t *testing.T) {
		before := testutil.ToFloat64(PlaceholderRunsTotal)

		RecordGeneration(true, 3*time.Second, 20, false)

		assert.Equal(t, before, testutil.ToFloat64(PlaceholderRunsTotal))
		assert.Equal(t, float64(20), testutil.ToFloat64(FeedItems))
	})

	t.Run("failure leaves feed gauges alone", func(t *testing.T) {
		items := testutil.ToFloat64(FeedItems)
		before := testutil.ToFloat64(GenerationRunsTotal.WithLabelValues("failure"))

		RecordGeneration(false, time.Second, 0, false)

		assert.Equal(t, before+1, testutil.ToFloat64(GenerationRunsTotal.WithLabelValues("failure")))
		assert.Equal(t, items, testutil.ToFloat64(FeedItems))
	})
}

func TestRecordBreakerState(t *testing.T) {
	RecordBreakerState("corsproxy", "open")
	assert.Equal(t, float64(2), testutil.ToFloat64(FetchBreakerState.WithLabelValues("corsproxy")))

	RecordBreakerState("corsproxy", "half-open")
	assert.Equal(t, float64(1), testutil.ToFloat64(FetchBreakerState.WithLabelValues("corsproxy")))

	RecordBreakerState("corsproxy", "closed")
	assert.Equal(t, float64(0), testutil.ToFloat64(FetchBreakerState.WithLabelValues("corsproxy")))
}
