package theme

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Watcher polls a file-backed theme and hands changed CSS to a callback.
// Polling follows edits to imported partials, which a single file watch
// would miss.
type Watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	theme    *Theme
	interval time.Duration
	onChange func(css string)
	stop     chan struct{}
	done     chan struct{}
	running  bool
}

// NewWatcher creates a watcher for theme. onChange runs on the watcher's
// goroutine.
func NewWatcher(theme *Theme, onChange func(css string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		theme:    theme,
		interval: time.Second,
		onChange: onChange,
	}
}

// SetPollInterval sets how often the theme file is checked.
func (w *Watcher) SetPollInterval(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = d
}

// Start begins polling. Bundled themes are never polled.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.theme == nil || w.theme.Bundled() {
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(ctx, w.interval)

	w.logger.Debug("theme watcher started", "path", w.theme.Path, "interval", w.interval)
}

// Stop ends polling and waits for the loop to exit.
func (w *Watcher) Stop() {
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
}

func (w *Watcher) loop(ctx context.Context, interval time.Duration) {
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

func (w *Watcher) check() {
	changed, err := w.theme.Reload()
	if err != nil {
		w.logger.Warn("failed to reload theme", "path", w.theme.Path, "error", err)
		return
	}
	if changed {
		w.logger.Info("theme changed, reloading", "path", w.theme.Path)
		if w.onChange != nil {
			w.onChange(w.theme.CSS)
		}
	}
}
