package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrNotFound is returned when a theme name resolves to nothing.
var ErrNotFound = errors.New("theme not found")

// importRegex matches @import "file.css"; @import 'file.css'; and @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a resolved stylesheet with imports inlined.
type Theme struct {
	Name    string
	Path    string // empty for bundled themes
	CSS     string
	ModTime time.Time
}

// Bundled reports whether the theme came from the embedded set.
func (t *Theme) Bundled() bool {
	return t.Path == ""
}

// ThemesDir returns the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "toastack", "themes"), nil
}

// Load resolves name to a theme. A name containing a path separator or
// ending in .css is read as a file; otherwise dir is searched before the
// bundled themes. An empty name loads the default theme.
func Load(name, dir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".css") {
		return FromFile(strings.TrimSuffix(filepath.Base(name), ".css"), name)
	}

	if dir != "" {
		path := filepath.Join(dir, name+".css")
		if _, err := os.Stat(path); err == nil {
			return FromFile(name, path)
		}
	}

	css, ok := Embedded(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &Theme{Name: name, CSS: ProcessImports(css, "", nil)}, nil
}

// Default returns the bundled default theme.
func Default() *Theme {
	css, _ := Embedded(DefaultThemeName)
	return &Theme{Name: DefaultThemeName, CSS: ProcessImports(css, "", nil)}
}

// FromFile reads a theme from path, inlining its imports.
func FromFile(name, path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat theme: %w", err)
	}
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme: %w", err)
	}
	return &Theme{
		Name:    name,
		Path:    path,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// ProcessImports inlines @import statements, resolving them relative to
// baseDir and falling back to bundled partials and themes. seen guards
// against import cycles.
func ProcessImports(css, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		sub := importRegex.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		importPath := sub[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}
		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		data, err := os.ReadFile(fullPath)
		if err != nil {
			base := filepath.Base(importPath)
			if strings.HasPrefix(base, "_") {
				if css, ok := Partial(base); ok {
					return "/* imported (embedded): " + importPath + " */\n" + css
				}
			}
			if css, ok := Embedded(strings.TrimSuffix(base, ".css")); ok {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(css, "", seen)
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		return "/* imported: " + importPath + " */\n" + ProcessImports(string(data), filepath.Dir(fullPath), seen)
	})
}

// Reload re-reads a file-backed theme. It reports whether the CSS changed.
func (t *Theme) Reload() (bool, error) {
	if t.Bundled() {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	if !info.ModTime().After(t.ModTime) {
		return false, nil
	}

	data, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	old := t.CSS
	t.CSS = ProcessImports(string(data), filepath.Dir(t.Path), nil)
	t.ModTime = info.ModTime()
	return old != t.CSS, nil
}

// Info describes a theme available for selection.
type Info struct {
	Name    string
	Path    string
	Bundled bool
}

// List returns the bundled themes followed by the user themes in dir.
// A user theme that shadows a bundled one is listed once, as the user's.
func List(dir string) ([]Info, error) {
	var out []Info
	index := make(map[string]int)
	for _, name := range ListEmbedded() {
		index[name] = len(out)
		out = append(out, Info{Name: name, Bundled: true})
	}

	if dir == "" {
		return out, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, err
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".css" || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		info := Info{Name: strings.TrimSuffix(e.Name(), ".css"), Path: filepath.Join(dir, e.Name())}
		if i, ok := index[info.Name]; ok {
			out[i] = info
			continue
		}
		out = append(out, info)
	}
	return out, nil
}
