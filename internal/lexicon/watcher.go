package lexicon

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher is a Source backed by a YAML file that is reloaded whenever the
// file changes. A reload that fails validation keeps the previous tables.
type Watcher struct {
	path    string
	current atomic.Pointer[Tables]
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	onLoad  func(*Tables)
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithLogger sets the logger used to report reloads.
func WithLogger(l *zap.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithReloadHook registers a function called after each successful reload.
func WithReloadHook(fn func(*Tables)) WatchOption {
	return func(w *Watcher) {
		w.onLoad = fn
	}
}

// NewWatcher loads the tables at path and starts watching the file.
// The directory is watched rather than the file so that editors that
// replace files by rename are picked up.
func NewWatcher(path string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve lexicon path: %w", err)
	}

	w := &Watcher{
		path:   abs,
		logger: zap.NewNop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	t, err := Load(abs)
	if err != nil {
		return nil, err
	}
	w.current.Store(t)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.watcher = fw

	w.wg.Add(1)
	go w.watch()
	return w, nil
}

// Current returns the most recently loaded tables.
func (w *Watcher) Current() *Tables {
	return w.current.Load()
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching and waits for the watch goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("lexicon watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	t, err := Load(w.path)
	if err != nil {
		w.logger.Warn("lexicon reload rejected, keeping previous tables",
			zap.String("path", w.path), zap.Error(err))
		return
	}
	w.current.Store(t)
	w.logger.Info("lexicon reloaded",
		zap.String("path", w.path),
		zap.Int("categories", len(t.Categories)),
		zap.Int("entities", len(t.Entities)))
	if w.onLoad != nil {
		w.onLoad(t)
	}
}
