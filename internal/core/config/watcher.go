package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"archcheck/internal/core/errors"

	"github.com/fsnotify/fsnotify"
)

const defaultReloadDebounce = 100 * time.Millisecond

// Watcher reloads a config file when it changes and hands every valid
// reload to the callback. Invalid edits are logged and the previous
// configuration stays in effect.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	onReload func(*Config)

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

// NewWatcher watches path. A zero debounce uses 100ms.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger, onReload func(*Config)) (*Watcher, error) {
	if path == "" {
		return nil, errors.New(errors.CodeValidationError, "config path is required")
	}
	if onReload == nil {
		return nil, errors.New(errors.CodeValidationError, "reload callback is required")
	}
	if debounce <= 0 {
		debounce = defaultReloadDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger,
		onReload: onReload,
	}, nil
}

// Start watches in the background until ctx is done. Wait blocks until the
// watch loop has exited.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create config watcher")
	}
	// The directory is watched so files replaced by atomic saves stay visible.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "watch config directory"), errors.CtxPath, w.path)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fw.Close()
		w.loop(ctx, fw)
	}()
	return nil
}

func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	w.logger.Debug("watching config", "path", w.path)
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous configuration", "path", w.path, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.path)
	w.onReload(cfg)
}
