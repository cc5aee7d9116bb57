package contentwatcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/digitalneighbour/sitekit"
)

// ChangeHandler receives the files that changed during one quiet period,
// as sorted slash paths relative to the watched root.
type ChangeHandler func(ctx context.Context, files []string)

// Watcher watches a directory tree and reports batches of changed files
// once no further change has arrived for the debounce period.
type Watcher struct {
	root     string
	debounce time.Duration
	include  []string
	exclude  []string
	handler  ChangeHandler
	logger   sitekit.Logger
	onError  func(error)

	fsw     *fsnotify.Watcher
	pending map[string]struct{}
	last    time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPatterns replaces the include and exclude patterns.
func WithPatterns(include, exclude []string) WatcherOption {
	return func(w *Watcher) {
		w.include, w.exclude = include, exclude
	}
}

func WithWatcherLogger(logger sitekit.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// WithErrorHandler is called with errors reported by the file system.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher creates a watcher for root. Nothing is watched until Start.
func NewWatcher(root string, debounce time.Duration, handler ChangeHandler, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: debounce,
		include:  []string{"**/*.json"},
		handler:  handler,
		logger:   sitekit.NopLogger{},
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start adds watches for root and every directory below it and begins
// processing events in the background.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	if err := w.addTree(w.root, false); err != nil {
		_ = fsw.Close()
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running = true
	go w.run(ctx)

	w.logger.Info("Content watcher started", "root", w.root, "debounce", w.debounce)
	return nil
}

// Stop ends event processing and releases the watches. Pending changes
// are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
	return w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Content watcher error", "error", err)
			if w.onError != nil {
				w.onError(err)
			}

		case now := <-ticker.C:
			if len(w.pending) > 0 && now.Sub(w.last) >= w.debounce {
				w.flush(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		// Files can land in a new directory before its watch exists.
		if err := w.addTree(event.Name, true); err != nil {
			w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
		}
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	w.record(event.Name)
}

func (w *Watcher) record(name string) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.Matches(rel) {
		return
	}
	w.logger.Debug("Content change detected", "path", rel)
	w.pending[rel] = struct{}{}
	w.last = time.Now()
}

// Matches reports whether a root-relative slash path passes the include
// and exclude patterns.
func (w *Watcher) Matches(rel string) bool {
	for _, p := range w.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	for _, p := range w.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) flush(ctx context.Context) {
	files := make([]string, 0, len(w.pending))
	for f := range w.pending {
		files = append(files, f)
	}
	slices.Sort(files)
	clear(w.pending)
	w.handler(ctx, files)
}

// addTree watches dir and its subdirectories. Hidden directories are
// skipped. When record is set, files already present are treated as
// changed.
func (w *Watcher) addTree(dir string, record bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if record {
				w.record(p)
			}
			return nil
		}
		if p != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			w.logger.Warn("Failed to watch directory", "path", p, "error", err)
		}
		return nil
	})
}

func isDir(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}
