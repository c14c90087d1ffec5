// Package store persists datasets and their report documents.
package store

import (
	"context"

	"postlens/internal/core"
)

// Store is the persistence boundary for datasets and reports. All report
// mutations are atomic row-level merges keyed by dataset id; concurrent
// requests against different datasets never interact.
type Store interface {
	// CreateDataset inserts a new dataset with its canonical post set.
	CreateDataset(ctx context.Context, dataset *core.Dataset) error

	// GetDataset retrieves a dataset (without its report) by id.
	GetDataset(ctx context.Context, id string) (*core.Dataset, error)

	// CreateOrReplaceReport persists the report for a dataset and returns
	// the share identifier. The first call allocates an opaque identifier;
	// subsequent calls reuse the existing one, keeping share links stable.
	CreateOrReplaceReport(ctx context.Context, datasetID string, report *core.Report) (string, error)

	// GetReport retrieves the report for a dataset. Returns a not_found
	// error when the dataset does not exist or holds no report.
	GetReport(ctx context.Context, datasetID string) (*core.Report, error)

	// GetReportByShareID resolves a share identifier to its report.
	GetReportByShareID(ctx context.Context, shareID string) (*core.Report, error)

	// ClearReport nulls the report fields on the dataset row, preserving
	// the dataset itself, and returns the prior share identifier so
	// callers can invalidate cached links. Clearing an already-cleared
	// dataset succeeds with an empty prior identifier; an unknown dataset
	// id fails with not_found.
	ClearReport(ctx context.Context, datasetID string) (string, error)

	// UpdateEditableContent merges one card's user-overridden content into
	// the editable_content map. Unspecified keys retain prior values.
	UpdateEditableContent(ctx context.Context, datasetID, cardID, content string) error

	// UpdateVisibility merges one card's visibility flag into the
	// card_visibility_settings map. Unspecified keys retain prior values.
	UpdateVisibility(ctx context.Context, datasetID, cardID string, visible bool) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
