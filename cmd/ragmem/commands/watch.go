// ABOUTME: Watch command rebuilds the index whenever .txt documents change
// ABOUTME: Runs until interrupted
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/watch"
)

var watchDir string

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the index when documents change",
		Long: `Watch a directory of .txt documents and rebuild the index after
changes settle (RAGMEM_WATCH_DEBOUNCE, default 2s).

The index is built once at startup if needed.

Examples:
  ragmem watch
  ragmem watch --dir ./sample_docs`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().StringVar(&watchDir, "dir", "", "Directory to watch (default: RAGMEM_DOCS_DIR)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	dir := watchDir
	if dir == "" {
		dir = a.cfg.DocsDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(dir, a.cfg.WatchDebounce, func(ctx context.Context) error {
		_, err := a.assistant.IndexDocuments(ctx, dir, true)
		return err
	}, a.logger.Named("watch"))
	if err != nil {
		return err
	}

	// An empty directory is fine at startup; the first document triggers a build
	if status, err := a.assistant.IndexDocuments(ctx, dir, false); err != nil {
		a.logger.Warn("Initial index build skipped", zap.Error(err))
	} else if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Index ready: %d chunks from %s\n", status.Manifest.Chunks, dir)
	}

	return w.Run(ctx)
}

// rebuildFunc rebuilds from the configured docs directory
func rebuildFunc(a *app) watch.RebuildFunc {
	return func(ctx context.Context) error {
		_, err := a.assistant.IndexDocuments(ctx, a.cfg.DocsDir, true)
		return err
	}
}
