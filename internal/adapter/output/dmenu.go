package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/toastack/internal/model"
)

// DmenuFormatter formats one line per toast for dmenu/rofi/fuzzel.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes toasts in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, frame Frame) error {
	for _, r := range frame.Rows {
		if _, err := fmt.Fprintln(w, f.formatLine(r, frame)); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single toast line.
func (f *DmenuFormatter) formatLine(r Row, frame Frame) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(r, frame.now())); err == nil {
			return buf.String()
		}
	}

	// Default format: index | age | category | title: message
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	var parts []string
	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", r.Placement.Index))
	}
	if f.opts.ShowTime {
		parts = append(parts, relativeTime(r.Toast.CreatedAt, frame.now()))
	}
	parts = append(parts, string(r.Toast.EffectiveCategory(model.DefaultCategory)))

	content := r.Toast.Title
	if r.Toast.Message != "" {
		msg := sanitizeMessage(r.Toast.Message, f.opts.MessageMaxLen, false)
		if content == "" {
			content = msg
		} else if msg != "" {
			content += ": " + msg
		}
	}
	parts = append(parts, content)

	return strings.Join(parts, sep)
}
