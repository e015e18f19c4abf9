package display

import (
	"strings"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// style owns the CSS provider the theme is loaded into.
type style struct {
	provider *gtk.CSSProvider
	applied  bool
}

func newStyle() *style {
	return &style{provider: gtk.NewCSSProvider()}
}

// load replaces the active stylesheet and attaches it to the default
// display on first use.
func (s *style) load(css string) {
	s.provider.LoadFromString(css)
	if s.applied {
		return
	}
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, s.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	s.applied = true
}

// colorScheme returns "dark" or "light" from the libadwaita style manager.
func colorScheme() string {
	if adw.StyleManagerGetDefault().Dark() {
		return "dark"
	}
	return "light"
}

// sanitizeClassName converts a string to a valid CSS class name.
func sanitizeClassName(name string) string {
	var b strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r == '-', r == '_', r == ' ', r == '.', r == '/':
			if !prevHyphen && b.Len() > 0 {
				b.WriteRune('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
