package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stackvity/fexplore/internal/filesystem"
)

// DefaultDebounce is used when no positive debounce is configured.
const DefaultDebounce = 300 * time.Millisecond

// fsnotifyWatcher is the part of *fsnotify.Watcher the loop needs.
type fsnotifyWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type realWatcher struct {
	w *fsnotify.Watcher
}

func (r realWatcher) Add(name string) error { return r.w.Add(name) }
func (r realWatcher) Close() error { return r.w.Close() }
func (r realWatcher) Events() <-chan fsnotify.Event { return r.w.Events }
func (r realWatcher) Errors() <-chan error { return r.w.Errors }

// newWatcher is swapped out in tests.
var newWatcher = func() (fsnotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return realWatcher{w}, nil
}

// ChangeFunc is called after a burst of changes settles. changed holds the
// affected paths, sorted.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher monitors a single directory (not recursively).
type Watcher struct {
	fs       filesystem.FileSystem
	dir      string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher for dir.
func New(fsys filesystem.FileSystem, dir string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{fs: fsys, dir: dir, debounce: debounce, logger: logger}
}

// Run blocks until ctx is cancelled, calling onChange once per debounced
// burst of events. It returns context.Canceled on a clean shutdown.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	info, err := w.fs.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("cannot watch '%s': %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot watch '%s': not a directory", w.dir)
	}

	watcher, err := newWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch '%s': %w", w.dir, err)
	}
	w.logger.Info("Watching for changes", "dir", w.dir, "debounce", w.debounce)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()
	pending := make(map[string]struct{})
	var pendingMu sync.Mutex
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watch", "dir", w.dir)
			return context.Canceled

		case event, ok := <-watcher.Events():
			if !ok {
				return errors.New("watcher event channel closed")
			}
			w.logger.Debug("Watcher event received", "event", event.String())
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Chmod) {
				continue
			}

			pendingMu.Lock()
			pending[event.Name] = struct{}{}
			pendingMu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			pendingMu.Lock()
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			pending = make(map[string]struct{})
			pendingMu.Unlock()

			if len(changed) == 0 {
				continue
			}
			sort.Strings(changed)
			if err := onChange(ctx, changed); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				w.logger.Error("Refresh after change failed", "error", err)
			}

		case err, ok := <-watcher.Errors():
			if !ok {
				return errors.New("watcher error channel closed")
			}
			w.logger.Error("File watcher error encountered, continuing", "error", err)
		}
	}
}
