// Package server exposes the report pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"postlens/internal/config"
	"postlens/internal/pipeline"
	"postlens/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"postlens/internal/logger"
)

// Server represents the HTTP server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	store      store.Store
	pipeline   *pipeline.Pipeline
	config     config.Server
	log        *zerolog.Logger
}

// New creates a new HTTP server instance.
func New(st store.Store, pl *pipeline.Pipeline, cfg config.Server) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		store:    st,
		pipeline: pl,
		config:   cfg,
		log:      logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	// Analyzer calls run up to 60s each; the request timeout sits above
	// the per-call ceiling so a slow section degrades instead of killing
	// the whole run.
	s.router.Use(middleware.Timeout(90 * time.Second))

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

// setupRoutes configures routes for the server.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/status", s.handleStatus)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/datasets", func(r chi.Router) {
		r.Post("/", s.handleCreateDataset)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Post("/report", s.handleGenerateReport)
			r.Get("/report", s.handleGetReport)
			r.Delete("/report", s.handleClearReport)
			r.Post("/analyzers/{kind}", s.handleRegenerateSection)
			r.Patch("/report/content", s.handleUpdateContent)
			r.Patch("/report/visibility", s.handleUpdateVisibility)
		})
	})

	// Public, unauthenticated read access by share identifier.
	s.router.Get("/share/{shareID}", s.handleGetSharedReport)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the chi mux. Used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// shareURL composes the externally reachable link for a share identifier.
func (s *Server) shareURL(shareID string) string {
	if shareID == "" {
		return ""
	}
	return s.config.PublicURL + "/share/" + shareID
}
