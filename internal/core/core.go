package core

import (
	"encoding/json"
	"time"
)

// Post represents one normalized social-media post.
// Posts are immutable once produced by the normalizer.
type Post struct {
	ID          string    `json:"id"`           // Unique identifier for the post
	Timestamp   time.Time `json:"timestamp"`    // Publication time (UTC)
	Text        string    `json:"text"`         // Cleaned post body
	Reactions   int       `json:"reactions"`    // Reaction count
	Comments    int       `json:"comments"`     // Comment count
	Shares      int       `json:"shares"`       // Share/repost count
	IsReshare   bool      `json:"is_reshare"`   // Whether the post reshares someone else's content
	MonthBucket string    `json:"month_bucket"` // Calendar month bucket, e.g. "2025-07"
}

// TotalEngagement returns the combined engagement of the post.
func (p Post) TotalEngagement() int {
	return p.Reactions + p.Comments + p.Shares
}

// PostSet is an ordered sequence of posts belonging to one dataset.
// Insertion order is preserved for narrative analysis.
type PostSet []Post

// NonReshares returns the subset of posts authored by the dataset owner,
// preserving order.
func (ps PostSet) NonReshares() PostSet {
	out := make(PostSet, 0, len(ps))
	for _, p := range ps {
		if !p.IsReshare {
			out = append(out, p)
		}
	}
	return out
}

// StatsSummary is a derived, immutable snapshot of aggregate metrics.
// Percentile fields are nil for an empty dataset; renderers show them
// as "—" rather than a number.
type StatsSummary struct {
	PostsInPeriod    int      `json:"posts_in_period"`
	ActiveMonths     int      `json:"active_months"`
	MedianEngagement *float64 `json:"median_engagement"`
	P90Engagement    *float64 `json:"p90_engagement"`
}

// AnalysisKind identifies one of the four analyzers.
type AnalysisKind string

const (
	KindTopics      AnalysisKind = "topics"
	KindPositioning AnalysisKind = "positioning"
	KindEvaluation  AnalysisKind = "evaluation"
	KindNarrative   AnalysisKind = "narrative"
)

// AnalysisKinds lists all analyzer kinds in their canonical order.
var AnalysisKinds = []AnalysisKind{KindTopics, KindPositioning, KindEvaluation, KindNarrative}

// Valid reports whether k names a known analyzer.
func (k AnalysisKind) Valid() bool {
	for _, known := range AnalysisKinds {
		if k == known {
			return true
		}
	}
	return false
}

// AnalysisStatus is the outcome of one analyzer run.
type AnalysisStatus string

const (
	StatusOK     AnalysisStatus = "ok"
	StatusFailed AnalysisStatus = "failed"
)

// AnalysisResult is the tagged result of one analyzer run. It is never
// mutated after creation; a retry produces a new result replacing the
// prior one for the same kind.
type AnalysisResult struct {
	Kind      AnalysisKind    `json:"kind"`
	Status    AnalysisStatus  `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`    // Validated analyzer-specific payload; absent when failed
	ErrorKind ErrorKind       `json:"error_kind,omitempty"` // Failure classification when status is failed
	Error     string          `json:"error,omitempty"`      // Human-readable error detail
	ModelUsed string          `json:"model_used,omitempty"` // Model identifier that produced the payload
}

// Report aggregates statistics, analysis results and user-editable
// overlay state for one dataset. A report with failed sections is still
// valid and shareable.
type Report struct {
	DatasetID       string                          `json:"dataset_id"`
	ShareID         string                          `json:"share_id"` // Stable opaque share identifier
	Stats           *StatsSummary                   `json:"stats"`
	Sections        map[AnalysisKind]AnalysisResult `json:"sections"`
	CardVisibility  map[string]bool                 `json:"card_visibility_settings"`
	EditableContent map[string]string               `json:"editable_content"`
}

// FailedSections returns the kinds whose analysis failed, in canonical order.
func (r *Report) FailedSections() []AnalysisKind {
	var failed []AnalysisKind
	for _, kind := range AnalysisKinds {
		if res, ok := r.Sections[kind]; ok && res.Status == StatusFailed {
			failed = append(failed, kind)
		}
	}
	return failed
}

// Dataset is the durable entity holding the author identity, the
// canonical post set and at most one report. Clearing the report never
// deletes the dataset.
type Dataset struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Posts     PostSet   `json:"posts"`
	Report    *Report   `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
