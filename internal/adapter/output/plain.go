package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastack/internal/model"
)

// PlainFormatter formats frames as plain text, one block per toast.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes a header line followed by every toast.
func (f *PlainFormatter) Format(w io.Writer, frame Frame) error {
	if f.template == nil {
		if _, err := fmt.Fprintf(w, "%s stack, %d toasts, extent %.0fpx\n", frame.Mode, len(frame.Rows), frame.Extent); err != nil {
			return err
		}
	}
	now := frame.now()
	for _, r := range frame.Rows {
		if err := f.formatRow(w, r, now); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatRow(w io.Writer, r Row, now time.Time) error {
	if f.template != nil {
		return f.template.Execute(w, newTemplateData(r, now))
	}

	var sb strings.Builder
	p := r.Placement

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", p.Index))
	}
	sb.WriteString(fmt.Sprintf("<%s> %s", r.Toast.EffectiveCategory(model.DefaultCategory), r.Toast.Title))
	if r.Phase != "" {
		sb.WriteString(fmt.Sprintf(" {%s}", r.Phase))
	}
	if f.opts.ShowTime {
		sb.WriteString(fmt.Sprintf(" (%s)", relativeTime(r.Toast.CreatedAt, now)))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("    offset_y=%g opacity=%.2f scale=%.2f z=%d height=%g\n",
		p.OffsetY, p.Opacity, p.Scale, p.ZIndex, r.Height))

	if r.Toast.Message != "" {
		msg := sanitizeMessage(r.Toast.Message, f.opts.MessageMaxLen, f.opts.IncludeNewline)
		sb.WriteString("    " + msg + "\n")
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Toast        model.Toast
	Category     model.Category
	OffsetY      float64
	Opacity      float64
	Scale        float64
	ZIndex       int
	Height       float64
	Phase        string
	RelativeTime string
}

func newTemplateData(r Row, now time.Time) templateData {
	return templateData{
		Index:        r.Placement.Index,
		Toast:        r.Toast,
		Category:     r.Toast.EffectiveCategory(model.DefaultCategory),
		OffsetY:      r.Placement.OffsetY,
		Opacity:      r.Placement.Opacity,
		Scale:        r.Placement.Scale,
		ZIndex:       r.Placement.ZIndex,
		Height:       r.Height,
		Phase:        r.Phase,
		RelativeTime: relativeTime(r.Toast.CreatedAt, now),
	}
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			return model.Toast{Message: s}.MessageTruncated(maxLen)
		},
		"upper": strings.ToUpper,
		"categoryIcon": func(c model.Category) string {
			switch c {
			case model.CategorySuccess:
				return "+"
			case model.CategoryError:
				return "!"
			case model.CategoryWarning:
				return "~"
			default:
				return "i"
			}
		},
	}
}

// relativeTime returns a human-readable relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// sanitizeMessage cleans up message text for display.
func sanitizeMessage(msg string, maxLen int, includeNewline bool) string {
	if !includeNewline {
		return model.Toast{Message: msg}.MessageTruncated(maxLenOrAll(maxLen, msg))
	}
	msg = strings.TrimSpace(msg)
	if maxLen > 0 && len([]rune(msg)) > maxLen {
		return model.Toast{Message: msg}.MessageTruncated(maxLen)
	}
	return msg
}

func maxLenOrAll(maxLen int, msg string) int {
	if maxLen <= 0 {
		return len([]rune(msg))
	}
	return maxLen
}
