// Package stats computes aggregate metrics over a normalized PostSet.
package stats

import (
	"sort"
	"time"

	"postlens/internal/core"
)

// Window bounds the reporting period. End is the injected period end;
// Months is the trailing window length.
type Window struct {
	End    time.Time
	Months int
}

// DefaultWindow returns the standard trailing 12 month window ending at end.
func DefaultWindow(end time.Time) Window {
	return Window{End: end, Months: 12}
}

// ComputeSummary derives a StatsSummary from a PostSet. It is a pure
// function: it never mutates posts and identical inputs yield identical
// summaries, so it is safe to recompute on every report view.
func ComputeSummary(posts core.PostSet, window Window) core.StatsSummary {
	summary := core.StatsSummary{}
	if len(posts) == 0 {
		return summary
	}

	original := posts.NonReshares()

	// Count posts inside the trailing window; fall back to the all-time
	// count when the window is empty so the summary is not misleadingly
	// blank for dormant accounts.
	start := window.End.AddDate(0, -window.Months, 0)
	inPeriod := 0
	for _, p := range original {
		if !p.Timestamp.Before(start) && !p.Timestamp.After(window.End) {
			inPeriod++
		}
	}
	if inPeriod == 0 {
		inPeriod = len(original)
	}
	summary.PostsInPeriod = inPeriod

	months := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		months[p.MonthBucket] = struct{}{}
	}
	summary.ActiveMonths = len(months)

	if len(original) > 0 {
		engagements := make([]float64, len(original))
		for i, p := range original {
			engagements[i] = float64(p.TotalEngagement())
		}
		sort.Float64s(engagements)

		median := Percentile(engagements, 0.5)
		p90 := Percentile(engagements, 0.9)
		summary.MedianEngagement = &median
		summary.P90Engagement = &p90
	}

	return summary
}

// Percentile computes the p-th percentile (0..1) of an ascending-sorted
// slice using linear interpolation between closest ranks. The slice must
// be non-empty and sorted.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
