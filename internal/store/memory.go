package store

import (
	"context"
	"sync"

	"postlens/internal/core"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used when no database is configured
// and as a test double. Semantics mirror PostgresStore, including the
// stable share identifier and partial-merge contracts.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*memoryRow
}

type memoryRow struct {
	dataset core.Dataset
	report  *core.Report
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{datasets: make(map[string]*memoryRow)}
}

func (s *MemoryStore) CreateDataset(_ context.Context, dataset *core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[dataset.ID] = &memoryRow{dataset: *dataset}
	return nil
}

func (s *MemoryStore) GetDataset(_ context.Context, id string) (*core.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.datasets[id]
	if !ok {
		return nil, core.Errorf(core.ErrNotFound, "dataset %s not found", id)
	}
	dataset := row.dataset
	return &dataset, nil
}

func (s *MemoryStore) CreateOrReplaceReport(_ context.Context, datasetID string, report *core.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.datasets[datasetID]
	if !ok {
		return "", core.Errorf(core.ErrNotFound, "dataset %s not found", datasetID)
	}

	shareID := ""
	if row.report != nil {
		shareID = row.report.ShareID
	}
	if shareID == "" {
		if report.ShareID != "" {
			shareID = report.ShareID
		} else {
			shareID = uuid.New().String()
		}
	}

	stored := *report
	stored.DatasetID = datasetID
	stored.ShareID = shareID
	row.report = &stored
	return shareID, nil
}

func (s *MemoryStore) GetReport(_ context.Context, datasetID string) (*core.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.datasets[datasetID]
	if !ok {
		return nil, core.Errorf(core.ErrNotFound, "dataset %s not found", datasetID)
	}
	if row.report == nil {
		return nil, core.Errorf(core.ErrNotFound, "dataset %s has no report", datasetID)
	}
	report := *row.report
	return &report, nil
}

func (s *MemoryStore) GetReportByShareID(_ context.Context, shareID string) (*core.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.datasets {
		if row.report != nil && row.report.ShareID == shareID {
			report := *row.report
			return &report, nil
		}
	}
	return nil, core.Errorf(core.ErrNotFound, "share %s not found", shareID)
}

func (s *MemoryStore) ClearReport(_ context.Context, datasetID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.datasets[datasetID]
	if !ok {
		return "", core.Errorf(core.ErrNotFound, "dataset %s not found", datasetID)
	}

	prior := ""
	if row.report != nil {
		prior = row.report.ShareID
	}
	row.report = nil
	return prior, nil
}

func (s *MemoryStore) UpdateEditableContent(_ context.Context, datasetID, cardID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.datasets[datasetID]
	if !ok {
		return core.Errorf(core.ErrNotFound, "dataset %s not found", datasetID)
	}
	if row.report == nil {
		return core.Errorf(core.ErrNotFound, "dataset %s has no report", datasetID)
	}
	if row.report.EditableContent == nil {
		row.report.EditableContent = make(map[string]string)
	}
	row.report.EditableContent[cardID] = content
	return nil
}

func (s *MemoryStore) UpdateVisibility(_ context.Context, datasetID, cardID string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.datasets[datasetID]
	if !ok {
		return core.Errorf(core.ErrNotFound, "dataset %s not found", datasetID)
	}
	if row.report == nil {
		return core.Errorf(core.ErrNotFound, "dataset %s has no report", datasetID)
	}
	if row.report.CardVisibility == nil {
		row.report.CardVisibility = make(map[string]bool)
	}
	row.report.CardVisibility[cardID] = visible
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
