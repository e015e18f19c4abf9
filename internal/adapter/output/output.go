// Package output provides output formatters for computed stack layouts.
package output

import (
	"io"
	"time"

	"github.com/jmylchreest/toastack/internal/layout"
	"github.com/jmylchreest/toastack/internal/model"
)

// Row is one toast of a frame with its computed placement.
type Row struct {
	Toast     model.Toast
	Placement layout.Placement
	Phase     string
	Height    float64
}

// Frame is a snapshot of a stack ready to be printed.
type Frame struct {
	Mode   model.Mode
	Extent float64
	Rows   []Row
	// Now is the reference time for relative ages. Zero means time.Now().
	Now time.Time
}

func (f Frame) now() time.Time {
	if f.Now.IsZero() {
		return time.Now()
	}
	return f.Now
}

// Formatter formats frames for output.
type Formatter interface {
	// Format writes the formatted frame to the writer.
	Format(w io.Writer, frame Frame) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatPlain FormatType = "plain"
)

// ValidFormats returns every supported format type.
func ValidFormats() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatIDs}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template       string // Custom template for dmenu/plain format
	ShowIndex      bool   // Show 0-based index prefix
	ShowTime       bool   // Show relative age
	MessageMaxLen  int    // Maximum message length (0 = unlimited)
	Separator      string // Field separator for dmenu format
	IncludeNewline bool   // Include newlines in messages (default: replace with space)
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:      true,
		ShowTime:       true,
		MessageMaxLen:  80,
		Separator:      " | ",
		IncludeNewline: false,
	}
}
