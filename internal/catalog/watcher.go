package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps a catalog loaded from a file and hot-reloads it when the
// file changes. A reload that fails to parse or validate is logged and
// the last good catalog stays in effect.
type Watcher struct {
	path    string
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	stop    chan struct{}

	mu       sync.RWMutex
	current  *Catalog
	onReload func(*Catalog)
}

// NewWatcher loads the catalog at path and prepares a filesystem watcher
// for it. The initial load must succeed.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create catalog watcher: %w", err)
	}

	return &Watcher{
		path:    path,
		logger:  logger.Named("catalog"),
		watcher: fw,
		stop:    make(chan struct{}),
		current: cat,
	}, nil
}

// OnReload registers fn to run with each successfully reloaded catalog,
// after it becomes current. Call before Start; the callback runs on the
// watcher goroutine.
func (w *Watcher) OnReload(fn func(*Catalog)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Current returns the catalog currently in effect.
func (w *Watcher) Current() *Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching the catalog file. Reload happens on write events;
// the background goroutine exits on Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if w.path == "" {
		// Built-in default catalog, nothing to watch.
		return nil
	}
	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("watch catalog file: %w", err)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cat, err := Load(w.path)
	if err != nil {
		w.logger.Warn("catalog reload failed, keeping previous version",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}

	w.mu.Lock()
	prev := w.current.Version
	w.current = cat
	fn := w.onReload
	w.mu.Unlock()

	w.logger.Info("catalog reloaded",
		zap.String("path", w.path),
		zap.String("previous_version", prev),
		zap.String("version", cat.Version))

	if fn != nil {
		fn(cat)
	}
}
