package cmd

import (
	"os"

	"postlens/cmd/handlers"
)

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd := handlers.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
