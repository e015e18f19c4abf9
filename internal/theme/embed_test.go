package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	css, found := Embedded(DefaultThemeName)
	require.True(t, found)
	assert.Contains(t, css, ".toast-card")
	assert.Contains(t, css, "@window_bg_color")

	_, found = Embedded("nonexistent")
	assert.False(t, found)
}

func TestPartial(t *testing.T) {
	for _, name := range []string{"_base.css", "_base", "base"} {
		t.Run(name, func(t *testing.T) {
			css, found := Partial(name)
			require.True(t, found)
			assert.Contains(t, css, "window.toast-stack")
		})
	}

	_, found := Partial("_nonexistent.css")
	assert.False(t, found)
}

func TestListEmbedded(t *testing.T) {
	names := ListEmbedded()
	assert.Contains(t, names, "default")
	assert.Contains(t, names, "minimal")
	for _, name := range names {
		assert.False(t, strings.HasPrefix(name, "_"), "partial listed: %s", name)
	}
}

func TestBundledThemes_HaveCardClasses(t *testing.T) {
	required := []string{
		".toast-card",
		".toast-title",
		".toast-close",
		".toast-card.dragging",
		".toast-card.exiting",
		".toast-stack-collapse",
	}

	for _, name := range ListEmbedded() {
		t.Run(name, func(t *testing.T) {
			th, err := Load(name, "")
			require.NoError(t, err)

			for _, class := range required {
				assert.Contains(t, th.CSS, class)
			}
			assert.Equal(t, strings.Count(th.CSS, "{"), strings.Count(th.CSS, "}"), "balanced braces")
		})
	}
}
