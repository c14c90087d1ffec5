// Package report merges statistics and analysis results into a Report
// document.
package report

import (
	"postlens/internal/core"
)

// DefaultCardVisibility lists the card identifiers of a fresh report.
// Every card starts visible; toggles are user state owned by the store.
var DefaultCardVisibility = map[string]bool{
	"stats":       true,
	"topics":      true,
	"positioning": true,
	"evaluation":  true,
	"narrative":   true,
}

// Aggregate merges a StatsSummary and analyzer results into a Report.
//
// When prior is nil a fresh report is built with default visibility and
// empty editable content; the share identifier is left empty for the
// store to allocate. When prior is non-nil only the stats and the
// supplied result slots are replaced: the share identifier, visibility
// settings, editable content and any result kinds not present in
// results carry over untouched. Aggregating identical inputs twice
// yields identical reports; no timestamps or fresh identifiers are
// embedded here.
func Aggregate(datasetID string, summary core.StatsSummary, results map[core.AnalysisKind]core.AnalysisResult, prior *core.Report) core.Report {
	out := core.Report{
		DatasetID: datasetID,
		Stats:     &summary,
		Sections:  make(map[core.AnalysisKind]core.AnalysisResult, len(core.AnalysisKinds)),
	}

	if prior != nil {
		out.ShareID = prior.ShareID
		out.CardVisibility = copyBoolMap(prior.CardVisibility)
		out.EditableContent = copyStringMap(prior.EditableContent)
		for kind, res := range prior.Sections {
			out.Sections[kind] = res
		}
	} else {
		out.CardVisibility = copyBoolMap(DefaultCardVisibility)
		out.EditableContent = make(map[string]string)
	}

	for kind, res := range results {
		out.Sections[kind] = res
	}

	return out
}

func copyBoolMap(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
