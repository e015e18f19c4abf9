package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/toastack/internal/config"
)

// ConfigWatcher polls the config file and hands validated configs to a
// callback. A config that fails to load or validate is reported and the
// previous one stays current.
type ConfigWatcher struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	path     string
	modTime  time.Time
	current  *config.Config
	interval time.Duration

	onReload func(cfg *config.Config)
	onError  func(err error)

	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		logger:   logger,
		path:     path,
		interval: time.Second,
	}
}

// SetPollInterval sets how often the file is checked.
func (w *ConfigWatcher) SetPollInterval(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = d
}

// SetReloadCallback sets the callback for successfully reloaded configs.
// It runs on the watcher goroutine.
func (w *ConfigWatcher) SetReloadCallback(f func(cfg *config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = f
}

// SetErrorCallback sets the callback for rejected configs.
func (w *ConfigWatcher) SetErrorCallback(f func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = f
}

// Start begins polling with initial as the current config.
func (w *ConfigWatcher) Start(ctx context.Context, initial *config.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.current = initial
	if info, err := os.Stat(w.path); err == nil {
		w.modTime = info.ModTime()
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(ctx, w.interval)

	w.logger.Debug("config watcher started", "path", w.path, "interval", w.interval)
}

// Stop ends polling and waits for the loop to exit.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	done := w.done
	w.mu.Unlock()

	<-done
	w.logger.Debug("config watcher stopped")
}

// Current returns the last valid config.
func (w *ConfigWatcher) Current() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *ConfigWatcher) loop(ctx context.Context, interval time.Duration) {
	defer close(w.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *ConfigWatcher) check() {
	info, err := os.Stat(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Debug("failed to stat config file", "path", w.path, "error", err)
		}
		return
	}

	w.mu.Lock()
	if !info.ModTime().After(w.modTime) {
		w.mu.Unlock()
		return
	}
	w.modTime = info.ModTime()
	onReload, onError := w.onReload, w.onError
	w.mu.Unlock()

	cfg, err := config.LoadConfig(w.path)
	if err != nil {
		w.logger.Warn("config changed but failed to load", "path", w.path, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	if onReload != nil {
		onReload(cfg)
	}
}
