package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SincereJuliya/chatbotgermano/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser view",
	Long: `Serve the transcript viewer to browsers.

Each browser tab gets its own view state over a websocket connection.
Runtime statistics are available at /debug/stats.

Examples:
  germano serve
  germano serve --addr :9000
  germano serve --api-url http://backend:8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from GERMANO_LISTEN_ADDR or :8501)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := web.NewServer(engine,
		web.WithLogger(logger),
		web.WithMetrics(collector),
		web.WithLayout(layout(cfg.Render)),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()
	logger.Info("browser view available", "url", fmt.Sprintf("http://localhost%s/", addr), "api_url", cfg.APIURL)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down web view...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logStats(logger, collector.Snapshot())
	logger.Info("web view stopped")
	return nil
}
