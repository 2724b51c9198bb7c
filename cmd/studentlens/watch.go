package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0ritam/studentlens/cmd/studentlens/ui"
	"github.com/0ritam/studentlens/internal/logging"
)

// watchSettle coalesces editor write bursts into one re-run.
const watchSettle = 500 * time.Millisecond

// watchRecords blocks, calling fn whenever the records file at path
// changes. It watches the parent directory rather than the file itself:
// editors that save by writing a temp file and renaming it over the
// target would otherwise detach the watch on the first save. Returns
// nil once ctx is cancelled.
func watchRecords(ctx context.Context, path string, fn func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	log := logging.Get(logging.CategoryBatch)
	debouncer := ui.NewDebouncer(watchSettle)
	defer debouncer.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("records file changed",
				zap.String("path", abs),
				zap.String("op", event.Op.String()))
			debouncer.Debounce(fn)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("records watch error", zap.Error(err))
		}
	}
}
