package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher drops cached sounds when their files are rewritten, so a
// replaced sound plays without a restart.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	dirs    map[string]int
	files   map[string]struct{}
	changed func(path string)
	done    chan struct{}
	running bool
}

// NewWatcher creates a watcher that calls changed for every modified file.
func NewWatcher(changed func(path string), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		logger:  logger,
		watcher: fw,
		dirs:    make(map[string]int),
		files:   make(map[string]struct{}),
		changed: changed,
		done:    make(chan struct{}),
	}, nil
}

// Watch adds path. Its directory is watched so editors that replace the
// file are seen.
func (w *Watcher) Watch(path string) error {
	if path == "" {
		return nil
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		return nil
	}
	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[path] = struct{}{}
	return nil
}

// Reset forgets every watched file.
func (w *Watcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for dir := range w.dirs {
		_ = w.watcher.Remove(dir)
	}
	w.dirs = make(map[string]int)
	w.files = make(map[string]struct{})
}

// Start runs the event loop until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	go w.loop(ctx)
}

// Stop ends the event loop and releases the watch descriptors.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	_ = w.watcher.Close()
	if running {
		<-w.done
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(ev.Name)
			w.mu.Lock()
			_, ok = w.files[path]
			w.mu.Unlock()
			if ok {
				w.logger.Debug("sound file changed", "path", path, "op", ev.Op.String())
				w.changed(path)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)
		}
	}
}
