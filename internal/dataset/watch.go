package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path into src whenever the file is written or recreated.
// A file that fails to parse is logged and the previous snapshot is kept.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, src *Source, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating dataset watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file via rename.
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving dataset path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching dataset", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("dataset watcher closed")
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			snap, err := LoadFile(abs)
			if err != nil {
				logger.Warn("dataset reload failed, keeping previous data", "path", abs, "error", err)
				continue
			}
			src.Replace(snap)
			logger.Info("dataset reloaded", "violations", len(snap.Violations), "frameworks", len(snap.Frameworks))
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("dataset watcher closed")
			}
			logger.Warn("dataset watcher error", "error", err)
		}
	}
}
