// Package watch rebuilds the index when the configured document changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RebuildFunc processes the file at path. It runs on the watcher goroutine.
type RebuildFunc func(ctx context.Context, path string) error

// Stats tracks watcher activity.
type Stats struct {
	Events      int
	Rebuilds    int
	Failures    int
	LastRebuild time.Time
	LastError   string
}

// Watcher watches one file and calls RebuildFunc once writes have settled.
// The parent directory is watched so editors that save via rename are picked up.
type Watcher struct {
	path     string
	dir      string
	debounce time.Duration
	rebuild  RebuildFunc
	logger   *zap.Logger

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	running bool
	stopped bool
	stats   Stats
}

// New creates a Watcher for path. debounce <= 0 means 500ms.
func New(path string, debounce time.Duration, rebuild RebuildFunc, logger *zap.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if rebuild == nil {
		return nil, fmt.Errorf("rebuild func is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		debounce: debounce,
		rebuild:  rebuild,
		logger:   logger.With(zap.String("path", abs)),
		fsw:      fsw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start begins watching. It is non-blocking; the event loop runs until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher stopped")
	}
	if w.running {
		return nil
	}

	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.running = true

	go w.run(ctx)
	w.logger.Info("Watching document for changes", zap.Duration("debounce", w.debounce))
	return nil
}

// Stop ends the event loop, waits for it, and releases the fs watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	running := w.running
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("Error closing fs watcher", zap.Error(err))
	}
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.mu.Unlock()
			w.logger.Debug("Document changed", zap.String("op", event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fs watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.rebuildNow(ctx)
		}
	}
}

// relevant keeps writes and creates of the watched file. Removes and renames away are
// ignored: the current index stays until a new file appears.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *Watcher) rebuildNow(ctx context.Context) {
	err := w.rebuild(ctx, w.path)

	w.mu.Lock()
	if err != nil {
		w.stats.Failures++
		w.stats.LastError = err.Error()
	} else {
		w.stats.Rebuilds++
		w.stats.LastRebuild = time.Now()
		w.stats.LastError = ""
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("Rebuild after change failed, keeping current index", zap.Error(err))
		return
	}
	w.logger.Info("Rebuilt index after document change")
}
