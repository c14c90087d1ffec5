// Package handlers contains the cobra command definitions.
package handlers

import (
	"fmt"
	"os"

	"postlens/internal/config"
	"postlens/internal/logger"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "postlens",
		Short: "Turn your exported post history into a shareable analytics report",
		Long: `Postlens ingests an exported social-media post history (CSV) and
produces a shareable analytics report combining deterministic statistics
with AI-generated insights: topic clusters, positioning, content-quality
scores and a narrative summary.

Examples:
  # Ingest a CSV export and generate a report
  postlens analyze exports/shares.csv --author "Ada Lovelace"

  # Show a stored report
  postlens report show <dataset-id>

  # Clear a report (the dataset survives)
  postlens report clear <dataset-id>

  # Start the HTTP API
  postlens serve`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .postlens.yaml)")

	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewReportCmd())
	rootCmd.AddCommand(NewServeCmd())

	cobra.OnInitialize(initConfig)

	return rootCmd
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.App.LogLevel)
}
