package gym

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long the gyms file must stay quiet before a reload.
const DefaultSettleDelay = 250 * time.Millisecond

// Watcher reloads a Directory whenever its backing file changes.
//
// Editors often replace a file with rename+create, so the parent directory is
// watched and events are filtered by name.
type Watcher struct {
	dir    *Directory
	path   string
	settle time.Duration
	logger *slog.Logger

	watcher *fsnotify.Watcher
	reloads chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

// NewWatcher watches path and reloads dir into it on change. A non-positive
// settle uses DefaultSettleDelay.
func NewWatcher(dir *Directory, path string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve gyms path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		dir:     dir,
		path:    path,
		settle:  settle,
		logger:  logger,
		watcher: fw,
		reloads: make(chan struct{}, 1),
	}, nil
}

// Reloads signals after every reload attempt. Signals are coalesced.
func (w *Watcher) Reloads() <-chan struct{} {
	return w.reloads
}

// Start processes file events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.processEvents(ctx)
}

// Stop closes the underlying watcher and waits for the event loop.
func (w *Watcher) Stop() error {
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("gyms file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Restart the settle timer so a burst of writes reloads once.
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, w.reload)
}

func (w *Watcher) reload() {
	if err := w.dir.LoadFile(w.path); err != nil {
		// Keep serving the previous list; a half-saved file is common.
		w.logger.Warn("gyms reload failed", "path", w.path, "error", err)
	}

	select {
	case w.reloads <- struct{}{}:
	default:
	}
}
