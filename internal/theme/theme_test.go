package theme

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// touch moves the mtime forward so Reload sees a change regardless of
// filesystem timestamp granularity.
func touch(t *testing.T, path string, d time.Duration) {
	t.Helper()
	at := time.Now().Add(d)
	require.NoError(t, os.Chtimes(path, at, at))
}

func TestProcessImports(t *testing.T) {
	t.Run("no imports", func(t *testing.T) {
		css := `.toast-card { color: red; }`
		assert.Equal(t, css, ProcessImports(css, "", nil))
	})

	t.Run("nested", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "_grandchild.css"), `.grandchild { color: blue; }`)
		writeFile(t, filepath.Join(dir, "_child.css"), "@import \"_grandchild.css\";\n.child { color: green; }")

		out := ProcessImports("@import \"_child.css\";\n.main { color: red; }", dir, nil)
		assert.Contains(t, out, "/* imported: _child.css */")
		assert.Contains(t, out, "/* imported: _grandchild.css */")
		assert.Contains(t, out, ".grandchild")
		assert.Contains(t, out, ".main")
	})

	t.Run("circular", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "_a.css"), "@import \"_b.css\";\n.a {}")
		writeFile(t, filepath.Join(dir, "_b.css"), "@import \"_a.css\";\n.b {}")

		out := ProcessImports(`@import "_a.css";`, dir, nil)
		assert.Contains(t, out, "/* imported: _b.css */")
		assert.Contains(t, out, "/* circular import prevented: _a.css */")
	})

	t.Run("missing", func(t *testing.T) {
		out := ProcessImports(`@import "nonexistent.css";`, t.TempDir(), nil)
		assert.Contains(t, out, "/* import failed: nonexistent.css")
	})

	t.Run("embedded fallback", func(t *testing.T) {
		out := ProcessImports(`@import "default.css";`, t.TempDir(), nil)
		assert.Contains(t, out, "/* imported (embedded): default.css */")
		assert.Contains(t, out, ".toast-card")
		assert.Contains(t, out, "window.toast-stack", "nested partial resolved")
	})
}

func TestImportRegex(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`@import "file.css";`, "file.css"},
		{`@import 'file.css';`, "file.css"},
		{`@import url("file.css");`, "file.css"},
		{`@import url( "file.css" );`, "file.css"},
		{`@import "_partial.css"`, "_partial.css"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := importRegex.FindStringSubmatch(tt.input)
			require.Len(t, m, 2)
			assert.Equal(t, tt.expected, m[1])
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.css"), `.toast-card { color: hotpink; }`)
	writeFile(t, filepath.Join(dir, "mine.css"), `@import "minimal.css"; .toast-title { color: red; }`)

	t.Run("user dir shadows bundled", func(t *testing.T) {
		th, err := Load("default", dir)
		require.NoError(t, err)
		assert.False(t, th.Bundled())
		assert.Contains(t, th.CSS, "hotpink")
	})

	t.Run("bundled", func(t *testing.T) {
		th, err := Load("minimal", dir)
		require.NoError(t, err)
		assert.True(t, th.Bundled())
		assert.Contains(t, th.CSS, "window.toast-stack")
	})

	t.Run("path", func(t *testing.T) {
		th, err := Load(filepath.Join(dir, "mine.css"), "")
		require.NoError(t, err)
		assert.Equal(t, "mine", th.Name)
		assert.Contains(t, th.CSS, "/* imported (embedded): minimal.css */")
	})

	t.Run("empty name", func(t *testing.T) {
		th, err := Load("", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultThemeName, th.Name)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Load("nope", dir)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTheme_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.css")
	writeFile(t, path, `.toast-card { color: red; }`)

	th, err := FromFile("test", path)
	require.NoError(t, err)

	changed, err := th.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "unchanged mtime")

	writeFile(t, filepath.Join(dir, "_new.css"), `:root { --new-color: blue; }`)
	writeFile(t, path, "@import \"_new.css\";\n.toast-card { color: var(--new-color); }")
	touch(t, path, time.Minute)

	changed, err = th.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, th.CSS, "--new-color: blue")

	bundled := Default()
	changed, err = bundled.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "minimal.css"), `.toast-card {}`)
	writeFile(t, filepath.Join(dir, "extra.css"), `.toast-card {}`)
	writeFile(t, filepath.Join(dir, "_partial.css"), `.x {}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), ``)

	infos, err := List(dir)
	require.NoError(t, err)

	byName := make(map[string]Info)
	for _, i := range infos {
		byName[i.Name] = i
	}
	assert.Len(t, byName, len(infos), "no duplicates")
	assert.True(t, byName["default"].Bundled)
	assert.False(t, byName["minimal"].Bundled, "user copy wins")
	assert.Contains(t, byName, "extra")
	assert.NotContains(t, byName, "_partial")

	infos, err = List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Len(t, infos, len(ListEmbedded()))
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.css")
	writeFile(t, path, `.toast-card { color: red; }`)

	th, err := FromFile("live", path)
	require.NoError(t, err)

	var mu sync.Mutex
	var got []string
	w := NewWatcher(th, func(css string) {
		mu.Lock()
		got = append(got, css)
		mu.Unlock()
	}, nil)
	w.SetPollInterval(10 * time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	writeFile(t, path, `.toast-card { color: green; }`)
	touch(t, path, time.Minute)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Contains(t, got[0], "green")
	mu.Unlock()
}
