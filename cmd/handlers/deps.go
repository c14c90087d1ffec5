package handlers

import (
	"context"
	"fmt"
	"os"

	"postlens/internal/analysis"
	"postlens/internal/config"
	"postlens/internal/llm"
	"postlens/internal/logger"
	"postlens/internal/pipeline"
	"postlens/internal/store"
)

// newStore opens the configured persistence backend. Without a database
// URL it degrades to the in-process store so local runs still work; that
// state is lost when the process exits.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	dbURL := cfg.Database.URL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		logger.Get().Warn().Msg("no database configured, using in-memory store")
		return store.NewMemoryStore(), nil
	}

	pg, err := store.NewPostgresStore(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return pg, nil
}

// newPipeline wires the LLM client, dispatcher and store into a pipeline.
func newPipeline(cfg *config.Config, st store.Store) (*pipeline.Pipeline, error) {
	client, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		return nil, err
	}

	dispatcher := analysis.NewDispatcher(client, cfg.Analysis.CallTimeout)
	return pipeline.New(dispatcher, st, &pipeline.Config{
		PeriodMonths: cfg.Analysis.PeriodMonths,
	}), nil
}
