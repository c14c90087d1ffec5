package server

import (
	"net/http"
	"time"

	"postlens/internal/core"
	"postlens/internal/normalize"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CreateDatasetResponse is returned after a CSV upload.
type CreateDatasetResponse struct {
	DatasetID string `json:"dataset_id"`
	Author    string `json:"author"`
	PostCount int    `json:"post_count"`
}

// ReportResponse wraps a report together with its shareable URL.
type ReportResponse struct {
	Report   *core.Report `json:"report"`
	ShareURL string       `json:"share_url"`
}

// ClearReportResponse echoes the cleared share URL so clients can
// invalidate caches and links.
type ClearReportResponse struct {
	DatasetID     string `json:"dataset_id"`
	PriorShareURL string `json:"prior_share_url"`
}

// handleCreateDataset handles POST /api/datasets. The body is the raw
// CSV export; the author comes from the X-Author header or query param.
func (s *Server) handleCreateDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	author := r.Header.Get("X-Author")
	if author == "" {
		author = r.URL.Query().Get("author")
	}

	rows, err := normalize.ReadRows(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondClassifiedError(w, err)
		return
	}

	posts, err := normalize.Normalize(rows, normalize.Options{Author: author})
	if err != nil {
		s.respondClassifiedError(w, err)
		return
	}

	dataset := &core.Dataset{
		ID:        uuid.New().String(),
		Author:    author,
		Posts:     posts,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDataset(ctx, dataset); err != nil {
		s.log.Error().Err(err).Msg("failed to create dataset")
		s.respondClassifiedError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, CreateDatasetResponse{
		DatasetID: dataset.ID,
		Author:    dataset.Author,
		PostCount: len(posts),
	})
}

// handleGetDataset handles GET /api/datasets/{id}.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.store.GetDataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondClassifiedError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, dataset)
}

// handleGenerateReport handles POST /api/datasets/{id}/report. The run
// succeeds even when individual analyzers fail; their sections render
// degraded with a per-section retry affordance.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "id")

	result, err := s.pipeline.GenerateReport(r.Context(), datasetID)
	if err != nil {
		s.log.Error().Err(err).Str("dataset_id", datasetID).Msg("report generation failed")
		s.respondClassifiedError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, ReportResponse{
		Report:   result.Report,
		ShareURL: s.shareURL(result.ShareID),
	})
}

// handleRegenerateSection handles POST /api/datasets/{id}/analyzers/{kind}.
func (s *Server) handleRegenerateSection(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "id")
	kind := core.AnalysisKind(chi.URLParam(r, "kind"))

	result, err := s.pipeline.RegenerateSection(r.Context(), datasetID, kind)
	if err != nil {
		s.respondClassifiedError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, ReportResponse{
		Report:   result.Report,
		ShareURL: s.shareURL(result.ShareID),
	})
}

// handleGetReport handles GET /api/datasets/{id}/report.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondClassifiedError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ReportResponse{
		Report:   report,
		ShareURL: s.shareURL(report.ShareID),
	})
}

// handleClearReport handles DELETE /api/datasets/{id}/report. The
// dataset itself survives; clearing an already-cleared report succeeds
// idempotently.
func (s *Server) handleClearReport(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "id")

	priorShareID, err := s.store.ClearReport(r.Context(), datasetID)
	if err != nil {
		s.respondClassifiedError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, ClearReportResponse{
		DatasetID:     datasetID,
		PriorShareURL: s.shareURL(priorShareID),
	})
}

// ContentPatch is the body of PATCH /report/content.
type ContentPatch struct {
	CardID  string `json:"card_id"`
	Content string `json:"content"`
}

// handleUpdateContent handles PATCH /api/datasets/{id}/report/content.
func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	var patch ContentPatch
	if err := decodeJSON(r, &patch); err != nil || patch.CardID == "" {
		s.respondError(w, http.StatusBadRequest, "card_id and content are required")
		return
	}

	if err := s.store.UpdateEditableContent(r.Context(), chi.URLParam(r, "id"), patch.CardID, patch.Content); err != nil {
		s.respondClassifiedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VisibilityPatch is the body of PATCH /report/visibility.
type VisibilityPatch struct {
	CardID  string `json:"card_id"`
	Visible bool   `json:"visible"`
}

// handleUpdateVisibility handles PATCH /api/datasets/{id}/report/visibility.
func (s *Server) handleUpdateVisibility(w http.ResponseWriter, r *http.Request) {
	var patch VisibilityPatch
	if err := decodeJSON(r, &patch); err != nil || patch.CardID == "" {
		s.respondError(w, http.StatusBadRequest, "card_id and visible are required")
		return
	}

	if err := s.store.UpdateVisibility(r.Context(), chi.URLParam(r, "id"), patch.CardID, patch.Visible); err != nil {
		s.respondClassifiedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSharedReport handles GET /share/{shareID}: read-only,
// unauthenticated access to a report by its share identifier.
func (s *Server) handleGetSharedReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.GetReportByShareID(r.Context(), chi.URLParam(r, "shareID"))
	if err != nil {
		s.respondClassifiedError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ReportResponse{
		Report:   report,
		ShareURL: s.shareURL(report.ShareID),
	})
}
