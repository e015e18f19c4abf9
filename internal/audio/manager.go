package audio

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/model"
)

// Request describes the sound wanted for one arriving toast.
type Request struct {
	Category model.Category
	// File overrides the category sound when set.
	File string
	// Suppress silences the toast entirely.
	Suppress bool
}

// Manager picks and plays arrival sounds according to the audio config.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	cfg     *config.Config
	sounds  map[model.Category]string
	stopped bool
}

// NewManager creates a manager on the system speaker.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return NewManagerWithPlayer(cfg, NewPlayer(logger), logger)
}

// NewManagerWithPlayer creates a manager on an existing player.
func NewManagerWithPlayer(cfg *config.Config, player *Player, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger, player: player}
	m.apply(cfg)
	return m
}

// Start preloads the configured sounds and watches them for changes.
// A watcher that cannot be created only disables cache invalidation.
func (m *Manager) Start(ctx context.Context) {
	w, err := NewWatcher(m.player.Invalidate, m.logger)
	if err != nil {
		m.logger.Warn("sound watcher unavailable", "error", err)
	} else {
		m.mu.Lock()
		m.watcher = w
		m.mu.Unlock()
		w.Start(ctx)
	}
	m.preload()
	m.logger.Info("audio manager started", "sounds", len(m.Sounds()))
}

// Stop releases the watcher and the output. Later Play calls are silent.
func (m *Manager) Stop() {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.stopped = true
	m.mu.Unlock()
	if w != nil {
		w.Stop()
	}
	m.player.Close()
}

// UpdateConfig applies a reloaded config.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.player.ClearCache()
	m.apply(cfg)
	m.mu.RLock()
	w := m.watcher
	m.mu.RUnlock()
	if w != nil {
		w.Reset()
	}
	m.preload()
}

// Sounds returns the resolved sound path for each configured category.
func (m *Manager) Sounds() map[model.Category]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.Category]string, len(m.sounds))
	for k, v := range m.sounds {
		out[k] = v
	}
	return out
}

// Resolve returns the file req would play, or "" for silence.
func (m *Manager) Resolve(req Request) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stopped || req.Suppress || m.cfg == nil || !m.cfg.Audio.Enabled {
		return ""
	}
	if req.File != "" {
		return config.ExpandPath(req.File)
	}
	return m.sounds[req.Category]
}

// Play plays the sound for req, if any.
func (m *Manager) Play(req Request) error {
	path := m.Resolve(req)
	if path == "" {
		return nil
	}
	return m.player.Play(path)
}

func (m *Manager) apply(cfg *config.Config) {
	sounds := make(map[model.Category]string)
	if cfg != nil {
		for _, cat := range []model.Category{model.CategorySuccess, model.CategoryError, model.CategoryInfo, model.CategoryWarning} {
			path := cfg.GetSoundForCategory(cat)
			if path == "" {
				continue
			}
			if _, err := os.Stat(path); err != nil {
				m.logger.Warn("sound file not found", "category", cat, "path", path)
				continue
			}
			sounds[cat] = path
		}
		m.player.SetVolume(float64(cfg.Audio.Volume) / 100)
	}

	m.mu.Lock()
	m.cfg = cfg
	m.sounds = sounds
	m.mu.Unlock()
}

func (m *Manager) preload() {
	m.mu.RLock()
	w := m.watcher
	m.mu.RUnlock()
	for cat, path := range m.Sounds() {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "category", cat, "path", path, "error", err)
		}
		if w != nil {
			if err := w.Watch(path); err != nil {
				m.logger.Debug("failed to watch sound", "path", path, "error", err)
			}
		}
	}
}
