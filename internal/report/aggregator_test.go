package report

import (
	"encoding/json"
	"reflect"
	"testing"

	"postlens/internal/core"
)

func okResult(kind core.AnalysisKind, payload string) core.AnalysisResult {
	return core.AnalysisResult{
		Kind:      kind,
		Status:    core.StatusOK,
		Payload:   json.RawMessage(payload),
		ModelUsed: "test-model",
	}
}

func failedResult(kind core.AnalysisKind) core.AnalysisResult {
	return core.AnalysisResult{
		Kind:      kind,
		Status:    core.StatusFailed,
		ErrorKind: core.ErrTimeout,
		Error:     "external call exceeded 60s",
	}
}

func sampleSummary() core.StatsSummary {
	median := 27.5
	p90 := 45.5
	return core.StatsSummary{
		PostsInPeriod:    10,
		ActiveMonths:     6,
		MedianEngagement: &median,
		P90Engagement:    &p90,
	}
}

func TestAggregate_FreshReport(t *testing.T) {
	results := map[core.AnalysisKind]core.AnalysisResult{
		core.KindTopics:    okResult(core.KindTopics, `{"topics":[]}`),
		core.KindNarrative: failedResult(core.KindNarrative),
	}

	rep := Aggregate("ds-1", sampleSummary(), results, nil)

	if rep.DatasetID != "ds-1" {
		t.Errorf("Expected dataset id ds-1, got %q", rep.DatasetID)
	}
	if rep.ShareID != "" {
		t.Errorf("Expected empty share id for store to allocate, got %q", rep.ShareID)
	}
	if !reflect.DeepEqual(rep.CardVisibility, DefaultCardVisibility) {
		t.Errorf("Expected default visibility, got %+v", rep.CardVisibility)
	}
	if len(rep.EditableContent) != 0 {
		t.Errorf("Expected empty editable content, got %+v", rep.EditableContent)
	}
	if rep.Sections[core.KindNarrative].ErrorKind != core.ErrTimeout {
		t.Errorf("Expected failed narrative slot preserved, got %+v", rep.Sections[core.KindNarrative])
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	results := map[core.AnalysisKind]core.AnalysisResult{
		core.KindTopics:      okResult(core.KindTopics, `{"topics":[]}`),
		core.KindPositioning: okResult(core.KindPositioning, `{"archetype":"Builder"}`),
	}

	first := Aggregate("ds-1", sampleSummary(), results, nil)
	second := Aggregate("ds-1", sampleSummary(), results, nil)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical reports from identical inputs")
	}
}

func TestAggregate_PartialRegenerationReplacesOnlySuppliedSlots(t *testing.T) {
	prior := Aggregate("ds-1", sampleSummary(), map[core.AnalysisKind]core.AnalysisResult{
		core.KindTopics:      okResult(core.KindTopics, `{"topics":[{"name":"AI"}]}`),
		core.KindPositioning: okResult(core.KindPositioning, `{"archetype":"Builder"}`),
		core.KindEvaluation:  failedResult(core.KindEvaluation),
		core.KindNarrative:   okResult(core.KindNarrative, `{"headline":"old"}`),
	}, nil)
	prior.ShareID = "share-abc"

	regenerated := map[core.AnalysisKind]core.AnalysisResult{
		core.KindEvaluation: okResult(core.KindEvaluation, `{"overall_score":8}`),
	}
	rep := Aggregate("ds-1", sampleSummary(), regenerated, &prior)

	if rep.ShareID != "share-abc" {
		t.Errorf("Expected share id carried over, got %q", rep.ShareID)
	}
	if rep.Sections[core.KindEvaluation].Status != core.StatusOK {
		t.Errorf("Expected evaluation slot replaced, got %+v", rep.Sections[core.KindEvaluation])
	}
	if string(rep.Sections[core.KindNarrative].Payload) != `{"headline":"old"}` {
		t.Errorf("Expected narrative slot untouched, got %s", rep.Sections[core.KindNarrative].Payload)
	}
	if string(rep.Sections[core.KindTopics].Payload) != `{"topics":[{"name":"AI"}]}` {
		t.Errorf("Expected topics slot untouched, got %s", rep.Sections[core.KindTopics].Payload)
	}
}

func TestAggregate_PreservesUserOverlay(t *testing.T) {
	prior := Aggregate("ds-1", sampleSummary(), nil, nil)
	prior.CardVisibility["evaluation"] = false
	prior.EditableContent["narrative"] = "my own words"

	rep := Aggregate("ds-1", sampleSummary(), map[core.AnalysisKind]core.AnalysisResult{
		core.KindNarrative: okResult(core.KindNarrative, `{"headline":"new"}`),
	}, &prior)

	if rep.CardVisibility["evaluation"] {
		t.Error("Expected hidden evaluation card to stay hidden")
	}
	if rep.EditableContent["narrative"] != "my own words" {
		t.Errorf("Expected user edit preserved, got %q", rep.EditableContent["narrative"])
	}
}

func TestAggregate_DoesNotAliasPriorMaps(t *testing.T) {
	prior := Aggregate("ds-1", sampleSummary(), nil, nil)

	rep := Aggregate("ds-1", sampleSummary(), nil, &prior)
	rep.CardVisibility["stats"] = false
	rep.EditableContent["stats"] = "edited"

	if !prior.CardVisibility["stats"] {
		t.Error("Mutating the new report leaked into the prior visibility map")
	}
	if _, ok := prior.EditableContent["stats"]; ok {
		t.Error("Mutating the new report leaked into the prior content map")
	}
}
