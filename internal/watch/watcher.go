// ABOUTME: Watches the document directory and rebuilds the index when .txt files change
// ABOUTME: Bursts of filesystem events are debounced into a single rebuild
package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/core"
	logpkg "github.com/harper/ragmem/internal/logger"
)

// DefaultDebounce is the quiet period before a rebuild starts
const DefaultDebounce = 2 * time.Second

// RebuildFunc rebuilds the index from the watched directory
type RebuildFunc func(ctx context.Context) error

// Watcher triggers a rebuild after document changes settle
type Watcher struct {
	dir      string
	debounce time.Duration
	rebuild  RebuildFunc
	logger   *zap.Logger
	fs       *fsnotify.Watcher
}

// New starts watching dir. The directory is created if missing.
func New(dir string, debounce time.Duration, rebuild RebuildFunc, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		debounce: debounce,
		rebuild:  rebuild,
		logger:   logpkg.OrNop(logger),
		fs:       fs,
	}, nil
}

// Run processes events until ctx is done. Rebuild failures are logged and
// the watcher keeps running.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	w.logger.Info("Watching documents", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("Document changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			pending = false
			start := time.Now()
			if err := w.rebuild(ctx); err != nil {
				w.logger.Error("Rebuild after change failed", zap.Error(err))
				continue
			}
			w.logger.Info("Index rebuilt after change", zap.Duration("took", time.Since(start)))

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return core.IsDocument(event.Name)
}
