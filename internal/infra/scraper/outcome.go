package scraper

import "oricon-feed/internal/domain/entity"

// SkipReason explains why a candidate element produced no record.
type SkipReason string

// Skip reasons, also used as metric labels.
const (
	SkipMissingLink   SkipReason = "missing_link"
	SkipInvalidLink   SkipReason = "invalid_link"
	SkipShortTitle    SkipReason = "short_title"
	SkipDuplicateLink SkipReason = "duplicate_link"
	SkipInvalidRecord SkipReason = "invalid_record"
)

// Outcome is the result of processing one candidate: exactly one of Article
// and Skip is set.
type Outcome struct {
	Index   int
	Article *entity.Article
	Skip    SkipReason
	Detail  string // what was rejected, for logs
}

// Accepted reports whether the candidate produced a record.
func (o Outcome) Accepted() bool {
	return o.Article != nil
}

// Result is what one extraction produced.
type Result struct {
	// Articles holds 1..MaxRecords records; a single placeholder when
	// Placeholder is set.
	Articles []entity.Article

	// Selector is the winning selector, empty when none matched.
	Selector string

	// Matches is how many elements the winning selector matched;
	// Candidates is that count capped at MaxCandidates.
	Matches    int
	Candidates int

	// Outcomes lists every evaluated candidate in document order.
	Outcomes []Outcome

	Placeholder bool
}

// SkipCounts tallies skipped candidates by reason.
func (r *Result) SkipCounts() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, o := range r.Outcomes {
		if !o.Accepted() {
			counts[o.Skip]++
		}
	}
	return counts
}
