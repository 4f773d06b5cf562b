// Package watcher watches a drop directory with fsnotify and reports files
// once writes to them settle.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/pkg/utils"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches one directory (not recursively) and calls onReady for
// matching files after they stop changing for the debounce interval.
type Watcher struct {
	dir         string
	extensions  []string
	onReady     func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the settle interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExtensions limits events to files with these extensions (".json").
// No extensions means every file.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) { w.extensions = exts }
}

// New creates a watcher for dir. The directory is created on Start if missing.
func New(dir string, onReady func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		dir:         filepath.Clean(dir),
		onReady:     onReady,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = utils.OrNop(w.logger)
	return w
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.started = true
	w.logger.Debug("watcher starting", zap.String("dir", w.dir), zap.Strings("extensions", w.extensions))
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancelDebounce(path)
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return
		}
		if w.matchExtension(path) {
			w.debounceReady(path)
		}
	}
}

func (w *Watcher) matchExtension(path string) bool {
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceReady(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.logger.Debug("watcher file ready", zap.String("path", path))
		if w.onReady != nil {
			w.onReady(path)
		}
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// Existing returns the matching files already in the directory, sorted by name.
func (w *Watcher) Existing() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.Type()&fs.ModeType != 0 {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if w.matchExtension(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// SyncExisting calls onReady for every matching file already present.
func (w *Watcher) SyncExisting() error {
	paths, err := w.Existing()
	if err != nil {
		return err
	}
	w.logger.Debug("watcher syncing existing files", zap.Int("files", len(paths)))
	for _, p := range paths {
		if w.onReady != nil {
			w.onReady(p)
		}
	}
	return nil
}

// Stop stops the watcher and drops pending events.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
