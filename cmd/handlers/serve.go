package handlers

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postlens/internal/config"
	"postlens/internal/logger"
	"postlens/internal/metrics"
	"postlens/internal/server"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command for starting the HTTP API.
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the postlens HTTP API.

The server provides:
  • Dataset upload and report generation endpoints
  • Per-analyzer regeneration
  • Public share links
  • Health check, status and Prometheus metrics endpoints

Examples:
  # Start server on default port 8080
  postlens serve

  # Start on custom port
  postlens serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	log := logger.Get()
	cfg := config.Get()
	metrics.Register()

	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	pl, err := newPipeline(cfg, st)
	if err != nil {
		return err
	}

	srv := server.New(st, pl, serverCfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
