package store

import (
	"context"
	"testing"
	"time"

	"postlens/internal/core"
)

func seedDataset(t *testing.T, s *MemoryStore, id string) {
	t.Helper()
	err := s.CreateDataset(context.Background(), &core.Dataset{
		ID:        id,
		Author:    "jane",
		Posts:     core.PostSet{{ID: "p1", Timestamp: time.Now(), Text: "hi"}},
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
}

func sampleReport(datasetID string) *core.Report {
	median := 27.5
	return &core.Report{
		DatasetID: datasetID,
		Stats:     &core.StatsSummary{PostsInPeriod: 10, ActiveMonths: 3, MedianEngagement: &median},
		Sections: map[core.AnalysisKind]core.AnalysisResult{
			core.KindTopics: {Kind: core.KindTopics, Status: core.StatusOK, Payload: []byte(`{"topics":[]}`)},
		},
		CardVisibility:  map[string]bool{"stats": true},
		EditableContent: map[string]string{},
	}
}

func TestMemoryStore_GetDatasetNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.GetDataset(context.Background(), "missing")
	if !core.IsNotFound(err) {
		t.Fatalf("Expected not_found, got %v", err)
	}
}

func TestMemoryStore_ShareIDStableAcrossRegeneration(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedDataset(t, s, "ds-1")

	first, err := s.CreateOrReplaceReport(ctx, "ds-1", sampleReport("ds-1"))
	if err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if first == "" {
		t.Fatal("Expected a share id to be allocated")
	}

	second, err := s.CreateOrReplaceReport(ctx, "ds-1", sampleReport("ds-1"))
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	if second != first {
		t.Errorf("Expected share id stable across regeneration, got %q then %q", first, second)
	}
}

func TestMemoryStore_ClearReturnsPriorShareID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedDataset(t, s, "ds-1")

	shareID, err := s.CreateOrReplaceReport(ctx, "ds-1", sampleReport("ds-1"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	prior, err := s.ClearReport(ctx, "ds-1")
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if prior != shareID {
		t.Errorf("Expected prior share id %q, got %q", shareID, prior)
	}

	// Clearing again is not an error; there is just no prior share.
	prior, err = s.ClearReport(ctx, "ds-1")
	if err != nil {
		t.Fatalf("Second clear failed: %v", err)
	}
	if prior != "" {
		t.Errorf("Expected empty prior share after re-clear, got %q", prior)
	}

	if _, err := s.GetReport(ctx, "ds-1"); !core.IsNotFound(err) {
		t.Errorf("Expected not_found after clear, got %v", err)
	}
}

func TestMemoryStore_NewShareIDAfterClearAndRegenerate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedDataset(t, s, "ds-1")

	first, _ := s.CreateOrReplaceReport(ctx, "ds-1", sampleReport("ds-1"))
	if _, err := s.ClearReport(ctx, "ds-1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	second, err := s.CreateOrReplaceReport(ctx, "ds-1", sampleReport("ds-1"))
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if second == first {
		t.Error("Expected a fresh share id after clear, got the old one")
	}
}

func TestMemoryStore_GetReportByShareID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedDataset(t, s, "ds-1")

	shareID, _ := s.CreateOrReplaceReport(ctx, "ds-1", sampleReport("ds-1"))

	rep, err := s.GetReportByShareID(ctx, shareID)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rep.DatasetID != "ds-1" {
		t.Errorf("Expected dataset ds-1, got %q", rep.DatasetID)
	}

	if _, err := s.GetReportByShareID(ctx, "nope"); !core.IsNotFound(err) {
		t.Errorf("Expected not_found for unknown share, got %v", err)
	}
}

func TestMemoryStore_OverlayUpdatesRequireReport(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedDataset(t, s, "ds-1")

	if err := s.UpdateEditableContent(ctx, "ds-1", "narrative", "edited"); !core.IsNotFound(err) {
		t.Errorf("Expected not_found without a report, got %v", err)
	}
	if err := s.UpdateVisibility(ctx, "ds-1", "topics", false); !core.IsNotFound(err) {
		t.Errorf("Expected not_found without a report, got %v", err)
	}
}

func TestMemoryStore_OverlayUpdatesArePartialMerges(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedDataset(t, s, "ds-1")
	if _, err := s.CreateOrReplaceReport(ctx, "ds-1", sampleReport("ds-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := s.UpdateEditableContent(ctx, "ds-1", "narrative", "my words"); err != nil {
		t.Fatalf("Content update failed: %v", err)
	}
	if err := s.UpdateVisibility(ctx, "ds-1", "topics", false); err != nil {
		t.Fatalf("Visibility update failed: %v", err)
	}

	rep, err := s.GetReport(ctx, "ds-1")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if rep.EditableContent["narrative"] != "my words" {
		t.Errorf("Expected edit stored, got %+v", rep.EditableContent)
	}
	if rep.CardVisibility["topics"] {
		t.Error("Expected topics hidden")
	}
	// Keys set before the merge survive it.
	if !rep.CardVisibility["stats"] {
		t.Error("Expected stats visibility untouched by merge")
	}
}
