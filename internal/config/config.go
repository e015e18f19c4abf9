// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toastack/internal/model"
)

// Config is the toastack configuration.
// Loaded from ~/.config/toastack/config.toml
type Config struct {
	Stack      StackConfig      `toml:"stack"`
	Gesture    GestureConfig    `toml:"gesture"`
	Transition TransitionConfig `toml:"transition"`
	Toast      ToastConfig      `toml:"toast"`
	Terminal   TerminalConfig   `toml:"terminal"`
	Display    DisplayConfig    `toml:"display"`
	Audio      AudioConfig      `toml:"audio"`
}

// StackConfig controls the layout of the stack, in pixels.
type StackConfig struct {
	CollapsedStep  float64 `toml:"collapsed_step"`  // Offset per card when collapsed
	Gap            float64 `toml:"gap"`             // Space between cards when expanded
	FallbackHeight float64 `toml:"fallback_height"` // Height assumed before a card is measured
	MinOpacity     float64 `toml:"min_opacity"`     // Floor for collapsed opacity
	OpacityFalloff float64 `toml:"opacity_falloff"` // Opacity lost per collapsed card
	ScaleFalloff   float64 `toml:"scale_falloff"`   // Scale lost per collapsed card
	ZIndexBase     int     `toml:"z_index_base"`    // Stacking order of the front card
	ZIndexStep     int     `toml:"z_index_step"`    // Stacking order lost per card
}

// GestureConfig controls swipe-to-dismiss.
type GestureConfig struct {
	DismissThreshold float64 `toml:"dismiss_threshold"` // Drag distance that dismisses
	TapEpsilon       float64 `toml:"tap_epsilon"`       // Movement still treated as a tap
	DragScale        float64 `toml:"drag_scale"`        // Card scale while dragging
}

// TransitionConfig controls entry and exit animations.
type TransitionConfig struct {
	Timeout Duration `toml:"timeout"` // e.g. "300ms" or 300
}

// ToastConfig contains settings applied to incoming toasts.
type ToastConfig struct {
	DefaultCategory string `toml:"default_category"`
	// CollapsedHeight is the fixed card height while collapsed.
	CollapsedHeight float64 `toml:"collapsed_height"`
	// Timeout closes toasts that asked for the server default. 0 keeps them.
	Timeout Duration `toml:"timeout"`
}

// TerminalConfig maps layout pixels onto terminal cells.
type TerminalConfig struct {
	CellWidth  float64 `toml:"cell_width"`  // Pixels per column
	CellHeight float64 `toml:"cell_height"` // Pixels per row
	CardWidth  int     `toml:"card_width"`  // Card width in columns
	Mouse      bool    `toml:"mouse"`       // Enable mouse/gesture input
}

// DisplayConfig contains settings for the GTK overlay surface.
type DisplayConfig struct {
	Position string `toml:"position"` // "top-right", "top-left", etc.
	OffsetX  int    `toml:"offset_x"` // Pixels from screen edge
	OffsetY  int    `toml:"offset_y"` // Pixels from screen edge
	Width    int    `toml:"width"`    // Card width in pixels
	Monitor  int    `toml:"monitor"`  // 0 = default, 1+ = specific monitor
	Theme    string `toml:"theme"`    // bundled theme name or path to a .css file
}

// AudioConfig contains arrival sound settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-category sound file paths.
type SoundConfig struct {
	Success string `toml:"success"`
	Error   string `toml:"error"`
	Info    string `toml:"info"`
	Warning string `toml:"warning"`
}

// Position represents the screen corner the stack is anchored to.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomCenter Position = "bottom-center"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopRight,
		PositionTopCenter,
		PositionBottomLeft,
		PositionBottomRight,
		PositionBottomCenter,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Stack: StackConfig{
			CollapsedStep:  8,
			Gap:            20,
			FallbackHeight: 80,
			MinOpacity:     0.4,
			OpacityFalloff: 0.15,
			ScaleFalloff:   0.05,
			ZIndexBase:     1000,
			ZIndexStep:     10,
		},
		Gesture: GestureConfig{
			DismissThreshold: 100,
			TapEpsilon:       2,
			DragScale:        0.85,
		},
		Transition: TransitionConfig{
			Timeout: Duration(DefaultTransitionTimeout),
		},
		Toast: ToastConfig{
			DefaultCategory: string(model.DefaultCategory),
			CollapsedHeight: 80,
			Timeout:         Duration(DefaultToastTimeout),
		},
		Terminal: TerminalConfig{
			CellWidth:  4,
			CellHeight: 8,
			CardWidth:  48,
			Mouse:      true,
		},
		Display: DisplayConfig{
			Position: string(PositionTopRight),
			OffsetX:  10,
			OffsetY:  10,
			Width:    360,
			Monitor:  0,
			Theme:    "default",
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "toastack", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Marshal encodes the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	s := c.Stack
	for name, v := range map[string]float64{
		"collapsed_step":  s.CollapsedStep,
		"gap":             s.Gap,
		"fallback_height": s.FallbackHeight,
		"opacity_falloff": s.OpacityFalloff,
		"scale_falloff":   s.ScaleFalloff,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("stack.%s must be a non-negative number, got %v", name, v)
		}
	}
	if s.MinOpacity < 0 || s.MinOpacity > 1 {
		return fmt.Errorf("stack.min_opacity must be between 0 and 1, got %v", s.MinOpacity)
	}
	if s.ZIndexStep < 1 {
		return fmt.Errorf("stack.z_index_step must be at least 1, got %d", s.ZIndexStep)
	}

	g := c.Gesture
	if g.DismissThreshold <= 0 {
		return fmt.Errorf("gesture.dismiss_threshold must be positive, got %v", g.DismissThreshold)
	}
	if g.TapEpsilon < 0 || g.TapEpsilon >= g.DismissThreshold {
		return fmt.Errorf("gesture.tap_epsilon must be between 0 and dismiss_threshold, got %v", g.TapEpsilon)
	}
	if g.DragScale <= 0 || g.DragScale > 1 {
		return fmt.Errorf("gesture.drag_scale must be in (0, 1], got %v", g.DragScale)
	}

	if c.Transition.Timeout < 0 {
		return fmt.Errorf("transition.timeout must not be negative, got %s", c.Transition.Timeout.Duration())
	}

	if _, ok := model.ParseCategory(c.Toast.DefaultCategory); !ok {
		return fmt.Errorf("invalid default_category %q, must be one of: %v", c.Toast.DefaultCategory, model.ValidCategories())
	}
	if c.Toast.CollapsedHeight <= 0 {
		return fmt.Errorf("toast.collapsed_height must be positive, got %v", c.Toast.CollapsedHeight)
	}

	if c.Toast.Timeout < 0 {
		return fmt.Errorf("toast.timeout must not be negative, got %s", c.Toast.Timeout.Duration())
	}

	if c.Terminal.CellWidth <= 0 || c.Terminal.CellHeight <= 0 {
		return fmt.Errorf("terminal cell size must be positive, got %vx%v", c.Terminal.CellWidth, c.Terminal.CellHeight)
	}
	if c.Terminal.CardWidth < 20 || c.Terminal.CardWidth > 200 {
		return fmt.Errorf("terminal.card_width must be between 20 and 200, got %d", c.Terminal.CardWidth)
	}

	if !slices.Contains(ValidPositions(), Position(c.Display.Position)) {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Display.Position, ValidPositions())
	}
	if c.Display.Width < 100 || c.Display.Width > 1000 {
		return fmt.Errorf("width must be between 100 and 1000, got %d", c.Display.Width)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// DefaultCategory returns the configured default category.
// Falls back to model.DefaultCategory for an unvalidated config.
func (c *Config) DefaultCategory() model.Category {
	if cat, ok := model.ParseCategory(c.Toast.DefaultCategory); ok {
		return cat
	}
	return model.DefaultCategory
}

// GetSoundForCategory returns the sound file path for the given category.
// Expands ~ to home directory.
func (c *Config) GetSoundForCategory(cat model.Category) string {
	var path string
	switch cat {
	case model.CategorySuccess:
		path = c.Audio.Sounds.Success
	case model.CategoryError:
		path = c.Audio.Sounds.Error
	case model.CategoryWarning:
		path = c.Audio.Sounds.Warning
	default:
		path = c.Audio.Sounds.Info
	}
	return ExpandPath(path)
}

// IsBottom returns true if the configured position is at the bottom of the screen.
func (c *Config) IsBottom() bool {
	switch Position(c.Display.Position) {
	case PositionBottomLeft, PositionBottomRight, PositionBottomCenter:
		return true
	default:
		return false
	}
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
