package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"postlens/internal/core"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // Postgres driver
)

// PostgresStore implements Store over a single datasets table. Report
// fields live as nullable JSONB columns on the dataset row so partial
// clears and merges stay atomic per dataset.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies it.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing connection. Used by tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateDataset(ctx context.Context, dataset *core.Dataset) error {
	postsJSON, err := json.Marshal(dataset.Posts)
	if err != nil {
		return core.NewError(core.ErrPersistence, "failed to marshal posts", err)
	}

	query := `
		INSERT INTO datasets (id, author, posts, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.ExecContext(ctx, query, dataset.ID, dataset.Author, postsJSON, dataset.CreatedAt.UTC())
	if err != nil {
		return core.NewError(core.ErrPersistence, "failed to insert dataset", err)
	}
	return nil
}

func (s *PostgresStore) GetDataset(ctx context.Context, id string) (*core.Dataset, error) {
	query := `SELECT id, author, posts, created_at FROM datasets WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id)

	var dataset core.Dataset
	var postsJSON []byte
	err := row.Scan(&dataset.ID, &dataset.Author, &postsJSON, &dataset.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.Errorf(core.ErrNotFound, "dataset %s not found", id)
		}
		return nil, core.NewError(core.ErrPersistence, "failed to read dataset", err)
	}

	if err := json.Unmarshal(postsJSON, &dataset.Posts); err != nil {
		return nil, core.NewError(core.ErrPersistence, "failed to unmarshal posts", err)
	}
	return &dataset, nil
}

func (s *PostgresStore) CreateOrReplaceReport(ctx context.Context, datasetID string, report *core.Report) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var shareID sql.NullString
	row := tx.QueryRowContext(ctx, `SELECT share_id FROM datasets WHERE id = $1 FOR UPDATE`, datasetID)
	if err := row.Scan(&shareID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", core.Errorf(core.ErrNotFound, "dataset %s not found", datasetID)
		}
		return "", core.NewError(core.ErrPersistence, "failed to read share id", err)
	}

	// First save allocates the opaque share identifier; later saves keep
	// existing share links stable.
	id := shareID.String
	if id == "" {
		if report.ShareID != "" {
			id = report.ShareID
		} else {
			id = uuid.New().String()
		}
	}

	statsJSON, err := json.Marshal(report.Stats)
	if err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to marshal stats", err)
	}
	sectionsJSON, err := json.Marshal(report.Sections)
	if err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to marshal sections", err)
	}
	visibilityJSON, err := json.Marshal(report.CardVisibility)
	if err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to marshal visibility", err)
	}
	contentJSON, err := json.Marshal(report.EditableContent)
	if err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to marshal editable content", err)
	}

	query := `
		UPDATE datasets
		SET share_id = $2, stats = $3, sections = $4, card_visibility = $5, editable_content = $6
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, datasetID, id, statsJSON, sectionsJSON, visibilityJSON, contentJSON); err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to save report", err)
	}

	if err := tx.Commit(); err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to commit report", err)
	}
	return id, nil
}

const reportColumns = `id, share_id, stats, sections, card_visibility, editable_content`

func (s *PostgresStore) GetReport(ctx context.Context, datasetID string) (*core.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM datasets WHERE id = $1`
	return s.scanReport(s.db.QueryRowContext(ctx, query, datasetID), datasetID)
}

func (s *PostgresStore) GetReportByShareID(ctx context.Context, shareID string) (*core.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM datasets WHERE share_id = $1`
	return s.scanReport(s.db.QueryRowContext(ctx, query, shareID), shareID)
}

func (s *PostgresStore) scanReport(row *sql.Row, ref string) (*core.Report, error) {
	var datasetID string
	var shareID sql.NullString
	var statsJSON, sectionsJSON, visibilityJSON, contentJSON []byte

	err := row.Scan(&datasetID, &shareID, &statsJSON, &sectionsJSON, &visibilityJSON, &contentJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.Errorf(core.ErrNotFound, "dataset %s not found", ref)
		}
		return nil, core.NewError(core.ErrPersistence, "failed to read report", err)
	}

	if !shareID.Valid || shareID.String == "" {
		return nil, core.Errorf(core.ErrNotFound, "dataset %s has no report", ref)
	}

	report := &core.Report{
		DatasetID: datasetID,
		ShareID:   shareID.String,
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &report.Stats); err != nil {
			return nil, core.NewError(core.ErrPersistence, "failed to unmarshal stats", err)
		}
	}
	if len(sectionsJSON) > 0 {
		if err := json.Unmarshal(sectionsJSON, &report.Sections); err != nil {
			return nil, core.NewError(core.ErrPersistence, "failed to unmarshal sections", err)
		}
	}
	if len(visibilityJSON) > 0 {
		if err := json.Unmarshal(visibilityJSON, &report.CardVisibility); err != nil {
			return nil, core.NewError(core.ErrPersistence, "failed to unmarshal visibility", err)
		}
	}
	if len(contentJSON) > 0 {
		if err := json.Unmarshal(contentJSON, &report.EditableContent); err != nil {
			return nil, core.NewError(core.ErrPersistence, "failed to unmarshal editable content", err)
		}
	}
	return report, nil
}

func (s *PostgresStore) ClearReport(ctx context.Context, datasetID string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var shareID sql.NullString
	row := tx.QueryRowContext(ctx, `SELECT share_id FROM datasets WHERE id = $1 FOR UPDATE`, datasetID)
	if err := row.Scan(&shareID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", core.Errorf(core.ErrNotFound, "dataset %s not found", datasetID)
		}
		return "", core.NewError(core.ErrPersistence, "failed to read share id", err)
	}

	query := `
		UPDATE datasets
		SET share_id = NULL, stats = NULL, sections = NULL, card_visibility = NULL, editable_content = NULL
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, datasetID); err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to clear report", err)
	}

	if err := tx.Commit(); err != nil {
		return "", core.NewError(core.ErrPersistence, "failed to commit clear", err)
	}
	return shareID.String, nil
}

func (s *PostgresStore) UpdateEditableContent(ctx context.Context, datasetID, cardID, content string) error {
	return s.mergeColumn(ctx, datasetID, "editable_content", map[string]string{cardID: content})
}

func (s *PostgresStore) UpdateVisibility(ctx context.Context, datasetID, cardID string, visible bool) error {
	return s.mergeColumn(ctx, datasetID, "card_visibility", map[string]bool{cardID: visible})
}

// mergeColumn applies a JSONB merge so only the supplied keys change.
// Keys absent from patch retain their prior values. Overlay state is
// layered on a report, so a dataset without one is treated as not found.
func (s *PostgresStore) mergeColumn(ctx context.Context, datasetID, column string, patch any) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return core.NewError(core.ErrPersistence, "failed to marshal patch", err)
	}

	query := fmt.Sprintf(`UPDATE datasets SET %s = COALESCE(%s, '{}'::jsonb) || $2 WHERE id = $1 AND share_id IS NOT NULL`, column, column)
	result, err := s.db.ExecContext(ctx, query, datasetID, patchJSON)
	if err != nil {
		return core.NewError(core.ErrPersistence, "failed to merge "+column, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.NewError(core.ErrPersistence, "failed to check merge result", err)
	}
	if affected == 0 {
		return core.Errorf(core.ErrNotFound, "dataset %s not found", datasetID)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
