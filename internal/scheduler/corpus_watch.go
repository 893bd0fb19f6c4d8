package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/hub/internal/logger"
)

const defaultWatchDebounce = 400 * time.Millisecond

// FileWatcher calls onChange when a single file is written, created or
// replaced. Bursts of events are collapsed into one call.
//
// The parent directory is watched rather than the file itself: editors and
// config-map mounts replace files by rename, which drops a watch held on the
// old inode.
type FileWatcher struct {
	path     string
	onChange func()
	debounce time.Duration
	logger   logger.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

// NewFileWatcher creates a watcher for path. A non-positive debounce uses the
// default of 400ms.
func NewFileWatcher(path string, debounce time.Duration, onChange func(), log logger.Logger) *FileWatcher {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	return &FileWatcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: debounce,
		logger:   log.Named("watch"),
		done:     make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *FileWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	w.logger.Info("watching corpus file", logger.String("file", w.path))

	go w.run(ctx, watcher)
	return nil
}

// Stop stops the watcher and cancels a pending notification.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.timer != nil {
			w.timer.Stop()
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}

func (w *FileWatcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", logger.Error(err))
		}
	}
}

func (w *FileWatcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	w.logger.Debug("file event",
		logger.String("op", ev.Op.String()),
		logger.String("file", ev.Name))

	// A removal is usually the first half of a replace; the Create that
	// follows triggers the reload.
	if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
		w.schedule()
	}
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange()
	})
}
