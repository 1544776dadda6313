// Package watcher reports changes to compiled units on a classpath.
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"archcheck/internal/core/errors"
	"archcheck/internal/shared/observability"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

var watchedSuffixes = []string{".class", ".jar", ".zip"}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Exclude holds slash-separated globs matched against paths relative to
	// the watched root.
	Exclude []string
	Logger  *slog.Logger
}

// Watcher batches file events under classpath roots and hands the changed
// paths to a callback once the debounce interval passes without new events.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	exclude    []glob.Glob
	logger     *slog.Logger
	onChange   func([]string)
	callbackMu sync.Mutex

	rootsMu  sync.RWMutex
	dirRoots []string
	// fileRoots maps a watched parent directory to the archive roots it holds.
	fileRoots map[string]map[string]bool

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
	done      chan struct{}
}

func New(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New(errors.CodeValidationError, "watcher callback is required")
	}

	compiled := make([]glob.Glob, 0, len(opts.Exclude))
	for _, raw := range opts.Exclude {
		g, err := glob.Compile(raw, '/')
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeValidationError, "invalid exclude glob"),
				errors.CtxPattern, raw)
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create file watcher")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsWatcher: fsw,
		debounce:  opts.Debounce,
		exclude:   compiled,
		logger:    logger,
		onChange:  onChange,
		fileRoots: make(map[string]map[string]bool),
		pending:   make(map[string]struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Watch registers every root and starts delivering events. Directory roots
// are watched recursively; archive and class-file roots through their
// parent directory.
func (w *Watcher) Watch(roots []string) error {
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "resolve watch root"), errors.CtxPath, root)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "watch root not found"), errors.CtxPath, abs)
		}
		if info.IsDir() {
			if err := w.addDirRoot(abs); err != nil {
				return err
			}
			continue
		}
		if err := w.addFileRoot(abs); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) addDirRoot(root string) error {
	w.rootsMu.Lock()
	w.dirRoots = append(w.dirRoots, root)
	w.rootsMu.Unlock()
	return w.watchRecursive(root)
}

func (w *Watcher) addFileRoot(path string) error {
	dir := filepath.Dir(path)
	w.rootsMu.Lock()
	files, ok := w.fileRoots[dir]
	if !ok {
		files = make(map[string]bool)
		w.fileRoots[dir] = files
	}
	files[path] = true
	w.rootsMu.Unlock()
	if ok {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "watch directory"), errors.CtxPath, dir)
	}
	return nil
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "watch directory"), errors.CtxPath, path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.underDirRoot(event.Name) && !w.excluded(event.Name) {
				if err := w.watchRecursive(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					return
				}
				w.enqueueExisting(event.Name)
			}
			return
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !w.relevant(event.Name) {
		return
	}
	w.schedule(event.Name)
}

// relevant reports whether path is a class or archive under a directory
// root, or is itself an archive root.
func (w *Watcher) relevant(path string) bool {
	w.rootsMu.RLock()
	files := w.fileRoots[filepath.Dir(path)]
	isFileRoot := files[path]
	w.rootsMu.RUnlock()
	if isFileRoot {
		return true
	}
	if !hasWatchedSuffix(path) || !w.underDirRoot(path) {
		return false
	}
	return !w.excluded(path)
}

func (w *Watcher) underDirRoot(path string) bool {
	_, ok := w.rootOf(path)
	return ok
}

func (w *Watcher) rootOf(path string) (string, bool) {
	w.rootsMu.RLock()
	defer w.rootsMu.RUnlock()
	for _, root := range w.dirRoots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root, true
		}
	}
	return "", false
}

func (w *Watcher) excluded(path string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	root, ok := w.rootOf(path)
	if !ok {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range w.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func hasWatchedSuffix(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range watchedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) enqueueExisting(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.relevant(path) {
			w.schedule(path)
		}
		return nil
	})
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	return w.fsWatcher.Close()
}
