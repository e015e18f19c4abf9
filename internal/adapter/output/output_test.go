package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastack/internal/layout"
	"github.com/jmylchreest/toastack/internal/model"
)

var refNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testFrame() Frame {
	return Frame{
		Mode:   model.ModeExpanded,
		Extent: 160,
		Now:    refNow,
		Rows: []Row{
			{
				Toast: model.Toast{
					ID:        "abc123",
					Title:     "Download Complete",
					Message:   "myfile.zip has finished downloading",
					Category:  model.CategorySuccess,
					CreatedAt: refNow.Add(-5 * time.Minute),
				},
				Placement: layout.Placement{Index: 0, Key: "abc123", Opacity: 1, Scale: 1, ZIndex: 1000},
				Phase:     "visible",
				Height:    80,
			},
			{
				Toast: model.Toast{
					ID:        "def456",
					Title:     "New Message",
					Message:   "Hello\nfrom   John",
					CreatedAt: refNow.Add(-2 * time.Hour),
				},
				Placement: layout.Placement{Index: 1, Key: "def456", OffsetY: 100, Opacity: 1, Scale: 1, ZIndex: 990},
				Phase:     "exiting",
				Height:    60,
			},
		},
	}
}

func TestDmenuFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	formatter := NewDmenuFormatter(DefaultFormatterOptions())
	require.NoError(t, formatter.Format(&buf, testFrame()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "0 | 5 minutes ago | success | Download Complete: myfile.zip has finished downloading", lines[0])
	assert.Equal(t, "1 | 2 hours ago | info | New Message: Hello from John", lines[1])
}

func TestDmenuFormatter_CustomTemplate(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultFormatterOptions()
	opts.Template = "{{categoryIcon .Category}} {{.Toast.Title | upper}}"

	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testFrame()))

	assert.Equal(t, "+ DOWNLOAD COMPLETE\ni NEW MESSAGE\n", buf.String())
}

func TestDmenuFormatter_TruncateMessage(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultFormatterOptions()
	opts.ShowIndex = false
	opts.ShowTime = false
	opts.MessageMaxLen = 10

	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testFrame()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "success | Download Complete: myfile....", lines[0])
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, testFrame()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "expanded", doc["mode"])
	assert.Equal(t, 160.0, doc["extent"])

	toasts := doc["toasts"].([]any)
	require.Len(t, toasts, 2)
	second := toasts[1].(map[string]any)
	assert.Equal(t, "def456", second["id"])
	assert.Equal(t, 100.0, second["offset_y"])
	assert.Equal(t, 990.0, second["z_index"])
	assert.Equal(t, "info", second["category"], "default category filled in")
	assert.Equal(t, "alert", second["role"])
	assert.Equal(t, "exiting", second["phase"])
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(DefaultFormatterOptions()).Format(&buf, testFrame()))

	var doc frameDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "expanded", doc.Mode)
	require.Len(t, doc.Toasts, 2)
	assert.Equal(t, "Download Complete", doc.Toasts[0].Title)
	assert.Equal(t, 80.0, doc.Toasts[0].Height)
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(DefaultFormatterOptions()).Format(&buf, testFrame()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "expanded stack, 2 toasts, extent 160px\n"))
	assert.Contains(t, out, "[0] <success> Download Complete {visible} (5 minutes ago)")
	assert.Contains(t, out, "offset_y=100 opacity=1.00 scale=1.00 z=990 height=60")
	assert.Contains(t, out, "    Hello from John\n")
}

func TestPlainFormatter_Template(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index}}:{{.OffsetY}}\n"

	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testFrame()))
	assert.Equal(t, "0:0\n1:100\n", buf.String())
}

func TestIDsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIDsFormatter().Format(&buf, testFrame()))
	assert.Equal(t, "abc123\ndef456\n", buf.String())
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()

	tests := []struct {
		format FormatType
		check  func(Formatter) bool
	}{
		{FormatJSON, func(f Formatter) bool { _, ok := f.(*JSONFormatter); return ok }},
		{FormatYAML, func(f Formatter) bool { _, ok := f.(*YAMLFormatter); return ok }},
		{FormatDmenu, func(f Formatter) bool { _, ok := f.(*DmenuFormatter); return ok }},
		{FormatIDs, func(f Formatter) bool { _, ok := f.(*IDsFormatter); return ok }},
		{FormatPlain, func(f Formatter) bool { _, ok := f.(*PlainFormatter); return ok }},
		{"unknown", func(f Formatter) bool { _, ok := f.(*PlainFormatter); return ok }}, // defaults to plain
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.True(t, tt.check(NewFormatter(tt.format, opts)))
		})
	}
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		name           string
		msg            string
		maxLen         int
		includeNewline bool
		want           string
	}{
		{"collapses whitespace", "a\n b   c", 0, false, "a b c"},
		{"truncates", "abcdefghij", 6, false, "abc..."},
		{"keeps newlines", "a\nb", 0, true, "a\nb"},
		{"empty", "", 10, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeMessage(tt.msg, tt.maxLen, tt.includeNewline))
		})
	}
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "unknown", relativeTime(time.Time{}, refNow))
	assert.Equal(t, "3 days ago", relativeTime(refNow.Add(-72*time.Hour), refNow))
}
