package server

import (
	"encoding/json"
	"net/http"
	"time"

	"postlens/internal/core"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ErrorResponse is the uniform failure payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

var serverStartTime = time.Now()

// handleHealth handles the /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := s.store.Ping(r.Context()); err != nil {
		checks["store"] = "error"
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: checks,
		})
		return
	}
	checks["store"] = "ok"

	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Checks: checks,
	})
}

// handleStatus handles the /api/status endpoint.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, StatusResponse{
		Version: "1.0.0",
		Uptime:  time.Since(serverStartTime).Round(time.Second).String(),
	})
}

// respondJSON writes a JSON response with the given status code.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// respondError writes a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}

// respondClassifiedError maps the error taxonomy onto HTTP status codes:
// client input errors get 400-class codes, processing and persistence
// failures get 500-class codes.
func (s *Server) respondClassifiedError(w http.ResponseWriter, err error) {
	switch core.KindOf(err) {
	case core.ErrNotFound:
		s.respondError(w, http.StatusNotFound, err.Error())
	case core.ErrValidation:
		s.respondError(w, http.StatusBadRequest, err.Error())
	case core.ErrPersistence:
		s.respondError(w, http.StatusBadGateway, err.Error())
	case core.ErrTimeout:
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
