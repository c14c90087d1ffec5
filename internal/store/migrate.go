package store

import (
	"context"
	"fmt"
)

// Migrate creates the datasets table if it does not exist. Report fields
// are nullable columns on the dataset row: clearing a report nulls them
// while the dataset survives.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS datasets (
			id               TEXT PRIMARY KEY,
			author           TEXT NOT NULL,
			posts            JSONB NOT NULL,
			share_id         TEXT,
			stats            JSONB,
			sections         JSONB,
			card_visibility  JSONB,
			editable_content JSONB,
			created_at       TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create datasets table: %w", err)
	}

	index := `CREATE UNIQUE INDEX IF NOT EXISTS datasets_share_id_idx ON datasets (share_id) WHERE share_id IS NOT NULL`
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create share_id index: %w", err)
	}
	return nil
}
