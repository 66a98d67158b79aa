package views

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for file events to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a Directory into a Repository after its view files change.
// fsnotify watches the operating system, so the Directory must live on an
// OS-backed afero file system.
type Watcher struct {
	dir      *Directory
	repo     *Repository
	debounce time.Duration
	logger   *slog.Logger

	// OnReload, when set, is called after every reload with its error.
	OnReload func(error)
}

// NewWatcher creates a watcher. A debounce <= 0 means DefaultDebounce; a
// nil logger means slog.Default().
func NewWatcher(dir *Directory, repo *Repository, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, repo: repo, debounce: debounce, logger: logger}
}

// Run watches until ctx is done. Bursts of events within the debounce
// interval cause a single reload.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir.Root()); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir.Root(), err)
	}
	w.logger.Info("watching views", "dir", w.dir.Root())

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("views watcher stopping", "reason", context.Cause(ctx))
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), Extension) {
				continue
			}
			w.logger.Debug("view file event", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("views watcher error", "error", err)

		case <-timer.C:
			err := w.dir.Reload(w.repo)
			if err != nil {
				w.logger.Warn("views reload failed", "dir", w.dir.Root(), "error", err)
			} else {
				w.logger.Info("views reloaded", "dir", w.dir.Root(), "count", w.repo.Len())
			}
			if w.OnReload != nil {
				w.OnReload(err)
			}
		}
	}
}
