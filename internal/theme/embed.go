package theme

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"
)

//go:embed themes/*.css
var bundled embed.FS

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "default"

// Embedded returns a bundled theme by name, without resolving imports.
func Embedded(name string) (string, bool) {
	data, err := bundled.ReadFile("themes/" + name + ".css")
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Partial returns a bundled partial. Partials are files starting with "_"
// that themes pull in with @import.
func Partial(name string) (string, bool) {
	if !strings.HasPrefix(name, "_") {
		name = "_" + name
	}
	if !strings.HasSuffix(name, ".css") {
		name += ".css"
	}
	data, err := bundled.ReadFile("themes/" + name)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ListEmbedded returns the names of the bundled themes, partials excluded.
func ListEmbedded() []string {
	entries, err := fs.ReadDir(bundled, "themes")
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || filepath.Ext(name) != ".css" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".css"))
	}
	return names
}
