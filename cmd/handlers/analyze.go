package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"postlens/internal/config"
	"postlens/internal/core"
	"postlens/internal/logger"
	"postlens/internal/metrics"
	"postlens/internal/normalize"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command: CSV export in, report out.
func NewAnalyzeCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "analyze <csv-file>",
		Short: "Ingest a CSV export and generate an analytics report",
		Long: `Analyze normalizes an exported post history, computes statistics,
runs the four AI analyzers and stores the merged report.

Failed analyzer sections degrade the report instead of blocking it; rerun
a single section later with the HTTP API or by re-running analyze.

Examples:
  postlens analyze exports/shares.csv --author "Ada Lovelace"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0], author)
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "dataset author, used for reshare detection")

	return cmd
}

func runAnalyze(ctx context.Context, csvPath, author string) error {
	log := logger.Get()
	cfg := config.Get()
	metrics.Register()

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer file.Close()

	rows, err := normalize.ReadRows(file)
	if err != nil {
		return err
	}
	posts, err := normalize.Normalize(rows, normalize.Options{Author: author})
	if err != nil {
		return err
	}
	log.Info().Int("posts", len(posts)).Msg("normalized post history")

	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	dataset := &core.Dataset{
		ID:        uuid.New().String(),
		Author:    author,
		Posts:     posts,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateDataset(ctx, dataset); err != nil {
		return err
	}

	pl, err := newPipeline(cfg, st)
	if err != nil {
		return err
	}

	result, err := pl.GenerateReport(ctx, dataset.ID)
	if err != nil {
		return err
	}

	fmt.Println(renderReport(result.Report))
	fmt.Printf("\nDataset: %s\nShare URL: %s/share/%s\n", dataset.ID, cfg.Server.PublicURL, result.ShareID)
	if len(result.Failed) > 0 {
		fmt.Printf("Sections unavailable (retry later): %v\n", result.Failed)
	}
	return nil
}
