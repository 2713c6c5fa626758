// ABOUTME: Serve command runs the JSON HTTP API with graceful shutdown
// ABOUTME: Optionally watches the docs directory and rebuilds on change
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/httpapi"
	"github.com/harper/ragmem/internal/watch"
)

var (
	serveAddr  string
	serveWatch bool
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the JSON HTTP API.

Routes:
  POST /v1/answer            {"question": "...", "k": 4}
  POST /v1/chat              {"question": "...", "k": 4}
  POST /v1/index             {"dir": "...", "force": false}
  POST /v1/memory            {"user_message": "...", "assistant_message": "..."}
  GET  /v1/memory/{target}   target is user or company
  GET  /healthz
  GET  /metrics              when RAGMEM_METRICS is true

Examples:
  ragmem serve
  ragmem serve --addr 127.0.0.1:9000 --watch`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: RAGMEM_HTTP_ADDR)")
	cmd.Flags().BoolVar(&serveWatch, "watch", false, "Rebuild the index when documents change")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.HTTPAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWatch {
		w, err := watch.New(a.cfg.DocsDir, a.cfg.WatchDebounce, rebuildFunc(a), a.logger.Named("watch"))
		if err != nil {
			return err
		}
		go func() { _ = w.Run(ctx) }()
	}

	api := httpapi.NewServer(a.assistant, a.logger.Named("http"), a.cfg.MetricsEnabled)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Covers the provider timeout across every retry
		WriteTimeout: a.cfg.Timeout*time.Duration(a.cfg.MaxRetries+1) + 30*time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
