package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/model"
)

type fakeOutput struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	inits  int
	played int
	closed bool
}

func (f *fakeOutput) Init(rate beep.SampleRate, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = rate
	f.inits++
	return nil
}

func (f *fakeOutput) Play(beep.Streamer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played++
}

func (f *fakeOutput) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// writeWAV writes a short 16-bit mono PCM file.
func writeWAV(t *testing.T, path string) {
	t.Helper()
	const rate, samples = 8000, 80
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	_ = binary.Write(&b, le, uint32(36+samples*2))
	b.WriteString("WAVEfmt ")
	_ = binary.Write(&b, le, uint32(16))
	_ = binary.Write(&b, le, uint16(1))      // PCM
	_ = binary.Write(&b, le, uint16(1))      // mono
	_ = binary.Write(&b, le, uint32(rate))   // sample rate
	_ = binary.Write(&b, le, uint32(rate*2)) // byte rate
	_ = binary.Write(&b, le, uint16(2))      // block align
	_ = binary.Write(&b, le, uint16(16))     // bits per sample
	b.WriteString("data")
	_ = binary.Write(&b, le, uint32(samples*2))
	b.Write(make([]byte, samples*2))
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.wav"))
	assert.True(t, Supported("a.OGG"))
	assert.True(t, Supported("a.mp3"))
	assert.False(t, Supported("a.flac"))
}

func TestPlayer_PlayCachesAndOpensOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ding.wav")
	writeWAV(t, path)

	out := &fakeOutput{}
	p := NewPlayerWithOutput(out, nil)

	require.NoError(t, p.Play(path))
	require.NoError(t, p.Play(path))

	assert.Equal(t, 1, out.inits)
	assert.Equal(t, beep.SampleRate(8000), out.rate)
	assert.Equal(t, 2, out.played)
	assert.True(t, p.Cached(path))

	p.Invalidate(path)
	assert.False(t, p.Cached(path))

	p.Close()
	assert.True(t, out.closed)
}

func TestPlayer_Errors(t *testing.T) {
	p := NewPlayerWithOutput(&fakeOutput{}, nil)

	assert.NoError(t, p.Play(""))
	assert.ErrorContains(t, p.Play("sound.flac"), "unsupported")
	assert.Error(t, p.Play(filepath.Join(t.TempDir(), "missing.wav")))
}

func TestPlayer_Volume(t *testing.T) {
	p := NewPlayerWithOutput(&fakeOutput{}, nil)
	p.SetVolume(2)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())

	assert.InDelta(t, -1.0, decibels(0.5), 1e-9)
	assert.Equal(t, -100.0, decibels(0))
}

func TestManager_Resolve(t *testing.T) {
	dir := t.TempDir()
	errSound := filepath.Join(dir, "error.wav")
	writeWAV(t, errSound)

	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sounds.Error = errSound
	cfg.Audio.Sounds.Info = filepath.Join(dir, "missing.wav")

	m := NewManagerWithPlayer(cfg, NewPlayerWithOutput(&fakeOutput{}, nil), nil)

	assert.Equal(t, map[model.Category]string{model.CategoryError: errSound}, m.Sounds(), "missing files are skipped")
	assert.Equal(t, errSound, m.Resolve(Request{Category: model.CategoryError}))
	assert.Empty(t, m.Resolve(Request{Category: model.CategoryInfo}))
	assert.Equal(t, "/tmp/x.wav", m.Resolve(Request{Category: model.CategoryInfo, File: "/tmp/x.wav"}))
	assert.Empty(t, m.Resolve(Request{Category: model.CategoryError, Suppress: true}))

	cfg2 := *cfg
	cfg2.Audio.Enabled = false
	m.UpdateConfig(&cfg2)
	assert.Empty(t, m.Resolve(Request{Category: model.CategoryError}))
}

func TestManager_Play(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.wav")
	writeWAV(t, path)

	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sounds.Success = path

	out := &fakeOutput{}
	m := NewManagerWithPlayer(cfg, NewPlayerWithOutput(out, nil), nil)

	require.NoError(t, m.Play(Request{Category: model.CategorySuccess}))
	require.NoError(t, m.Play(Request{Category: model.CategoryWarning}))
	assert.Equal(t, 1, out.played)
}

func TestManager_PlayAfterStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.wav")
	writeWAV(t, path)

	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Sounds.Success = path

	out := &fakeOutput{}
	m := NewManagerWithPlayer(cfg, NewPlayerWithOutput(out, nil), nil)
	m.Stop()

	require.NoError(t, m.Play(Request{Category: model.CategorySuccess}))
	assert.Equal(t, 0, out.played)
	assert.Equal(t, 0, out.inits, "speaker not reopened")
	assert.Empty(t, m.Resolve(Request{Category: model.CategorySuccess}))
}
