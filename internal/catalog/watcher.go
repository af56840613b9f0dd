package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Rebuilder triggers a catalog rebuild.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Watcher rebuilds the catalog when the bulletin file changes on disk.
// Changes are debounced so editors that write in several bursts trigger a
// single rebuild.
type Watcher struct {
	path     string
	debounce time.Duration
	target   Rebuilder
	logger   *slog.Logger
}

// NewWatcher watches the bulletin at path and calls target after debounce of
// quiet time following a change.
func NewWatcher(path string, debounce time.Duration, target Rebuilder, logger *slog.Logger) *Watcher {
	return &Watcher{path: path, debounce: debounce, target: target, logger: logger}
}

// Run blocks until the context is cancelled or the watch fails to start.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory, not the file: editors and atomic writers replace
	// the file, which would silently kill a watch on the file itself.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.Info("watching catalog file", "path", w.path, "debounce", w.debounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping", "reason", ctx.Err())
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.matches(event) {
				continue
			}
			w.logger.Debug("catalog change detected", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-fire:
			if err := w.target.Rebuild(ctx); err != nil {
				w.logger.Error("rebuild after file change failed", "error", err)
			}
		}
	}
}

func (w *Watcher) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}
