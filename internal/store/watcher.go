package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/toastack/internal/model"
)

// Loader reads the current contents of a feed file.
type Loader func(ctx context.Context) ([]model.Toast, error)

// FileWatcher watches a feed file and loads new toasts into the store
// whenever the file is written.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	store    *Store
	filePath string
	load     Loader
	logger   *slog.Logger
	done     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewFileWatcher creates a new file watcher for filePath.
func NewFileWatcher(store *Store, filePath string, load Loader, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		store:    store,
		filePath: filePath,
		load:     load,
		logger:   logger,
		done:     make(chan struct{}),
	}

	return fw, nil
}

// Start loads the file once and begins watching it for changes.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	// Watch the directory containing the file (more reliable for writes)
	dir := filepath.Dir(fw.filePath)
	if err := fw.watcher.Add(dir); err != nil {
		return err
	}

	fw.reload(ctx)
	go fw.watch(ctx)
	return nil
}

// watch is the main watch loop.
func (fw *FileWatcher) watch(ctx context.Context) {
	filename := filepath.Base(fw.filePath)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Only care about our file
			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fw.logger.Debug("feed changed, reloading", "file", fw.filePath)
				fw.reload(ctx)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)

		case <-ctx.Done():
			return

		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) reload(ctx context.Context) {
	toasts, err := fw.load(ctx)
	if err != nil {
		fw.logger.Warn("failed to load feed", "file", fw.filePath, "error", err)
		return
	}
	for i := range toasts {
		toasts[i].EnsureContentID("feed-")
	}
	n, err := fw.store.AddBatch(toasts, "file")
	if err != nil {
		fw.logger.Warn("failed to add feed toasts", "file", fw.filePath, "error", err)
		return
	}
	if n > 0 {
		fw.logger.Debug("feed loaded", "file", fw.filePath, "changed", n)
	}
}

// Stop stops the file watcher.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return nil
	}

	fw.running = false
	close(fw.done)
	return fw.watcher.Close()
}
