package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastack/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8.0, cfg.Stack.CollapsedStep)
	assert.Equal(t, 20.0, cfg.Stack.Gap)
	assert.Equal(t, 80.0, cfg.Stack.FallbackHeight)
	assert.Equal(t, 0.4, cfg.Stack.MinOpacity)
	assert.Equal(t, 0.15, cfg.Stack.OpacityFalloff)
	assert.Equal(t, 0.05, cfg.Stack.ScaleFalloff)
	assert.Equal(t, 100.0, cfg.Gesture.DismissThreshold)
	assert.Equal(t, 0.85, cfg.Gesture.DragScale)
	assert.Equal(t, 300*time.Millisecond, cfg.Transition.Timeout.Duration())
	assert.Equal(t, model.CategoryInfo, cfg.DefaultCategory())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Stack, cfg.Stack)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[stack]
collapsed_step = 12.0
gap = 16.0
min_opacity = 0.5

[gesture]
dismiss_threshold = 150.0

[transition]
timeout = "450ms"

[toast]
default_category = "warning"

[display]
position = "bottom-left"
width = 400
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 12.0, cfg.Stack.CollapsedStep)
	assert.Equal(t, 16.0, cfg.Stack.Gap)
	assert.Equal(t, 0.5, cfg.Stack.MinOpacity)
	assert.Equal(t, 150.0, cfg.Gesture.DismissThreshold)
	assert.Equal(t, 450*time.Millisecond, cfg.Transition.Timeout.Duration())
	assert.Equal(t, model.CategoryWarning, cfg.DefaultCategory())
	assert.True(t, cfg.IsBottom())
	assert.Equal(t, 400, cfg.Display.Width)

	// Unchanged fields keep their defaults
	assert.Equal(t, 0.15, cfg.Stack.OpacityFalloff)
	assert.Equal(t, 0.85, cfg.Gesture.DragScale)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_FailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[toast]\ndefault_category = \"loud\"\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_category")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative step", func(c *Config) { c.Stack.CollapsedStep = -1 }},
		{"min opacity above one", func(c *Config) { c.Stack.MinOpacity = 1.5 }},
		{"zero z step", func(c *Config) { c.Stack.ZIndexStep = 0 }},
		{"zero threshold", func(c *Config) { c.Gesture.DismissThreshold = 0 }},
		{"epsilon above threshold", func(c *Config) { c.Gesture.TapEpsilon = 200 }},
		{"drag scale zero", func(c *Config) { c.Gesture.DragScale = 0 }},
		{"negative timeout", func(c *Config) { c.Transition.Timeout = Duration(-time.Second) }},
		{"negative toast timeout", func(c *Config) { c.Toast.Timeout = Duration(-time.Second) }},
		{"bad position", func(c *Config) { c.Display.Position = "middle" }},
		{"tiny card", func(c *Config) { c.Terminal.CardWidth = 5 }},
		{"loud volume", func(c *Config) { c.Audio.Volume = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Stack.Gap = 24
	cfg.Transition.Timeout = Duration(time.Second)

	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 24.0, loaded.Stack.Gap)
	assert.Equal(t, time.Second, loaded.Transition.Timeout.Duration())
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"300ms", 300 * time.Millisecond, false},
		{"1s", time.Second, false},
		{"250", 250 * time.Millisecond, false},
		{"0", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestGetSoundForCategory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.Sounds.Error = "/sounds/error.ogg"
	cfg.Audio.Sounds.Info = "/sounds/info.wav"

	assert.Equal(t, "/sounds/error.ogg", cfg.GetSoundForCategory(model.CategoryError))
	assert.Equal(t, "/sounds/info.wav", cfg.GetSoundForCategory(model.CategoryInfo))
	assert.Equal(t, "", cfg.GetSoundForCategory(model.CategorySuccess))
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/toastack/config.toml", ConfigPath())
}
