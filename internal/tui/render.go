package tui

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/lifecycle"
	"github.com/jmylchreest/toastack/internal/model"
	"github.com/jmylchreest/toastack/internal/stack"
)

const closeGlyph = "×"

// cardRenderer draws toast cards and measures them in terminal cells.
// Layout positions are pixels; the terminal config maps them to cells.
type cardRenderer struct {
	term  config.TerminalConfig
	stack *stack.Stack[string]
	now   func() time.Time
}

func newCardRenderer(term config.TerminalConfig) *cardRenderer {
	if term.CellWidth <= 0 {
		term.CellWidth = 1
	}
	if term.CellHeight <= 0 {
		term.CellHeight = 1
	}
	if term.CardWidth < 12 {
		term.CardWidth = 12
	}
	return &cardRenderer{term: term, now: time.Now}
}

// innerWidth is the text width of a full-size card.
func (r *cardRenderer) innerWidth() int {
	return r.term.CardWidth - 4 // border and padding
}

func (r *cardRenderer) expanded() bool {
	return r.stack != nil && r.stack.Mode().Expanded()
}

// render produces the body of a card: title line, message and age.
// Collapsed cards show a single truncated message line.
func (r *cardRenderer) render(t model.Toast, _ int) string {
	width := r.innerWidth()
	titleWidth := width - 2 - lipgloss.Width(closeGlyph)

	title := t.Title
	if title == "" {
		title = t.MessageTruncated(titleWidth)
	}
	title = ansi.Truncate(title, titleWidth, "…")
	gap := max(1, width-lipgloss.Width(title)-lipgloss.Width(closeGlyph))
	titleLine := titleStyle.Render(title) + strings.Repeat(" ", gap) + closeStyle.Render(closeGlyph)

	var msg string
	if r.expanded() {
		msg = lipgloss.NewStyle().Width(width).Render(strings.TrimSpace(t.Message))
	} else {
		msg = t.MessageTruncated(width)
	}

	lines := []string{titleLine}
	if msg != "" {
		lines = append(lines, msg)
	}
	lines = append(lines, ageStyle.Render(age(t.CreatedAt, r.now())))
	return strings.Join(lines, "\n")
}

// frame wraps a card body in its border at the given scale.
func (r *cardRenderer) frame(c stack.Card[string], selected bool) string {
	width := r.frameWidth(c.Scale) - 2
	style := cardStyle.
		BorderForeground(categoryColor(c.Category)).
		Width(width)
	if selected {
		style = style.BorderStyle(lipgloss.ThickBorder())
	}
	if c.Placement.Opacity < 0.85 || c.Phase == lifecycle.PhaseExiting {
		style = style.Faint(true)
	}
	if c.Placement.Opacity < 0.5 {
		style = style.BorderForeground(lipgloss.Color("8"))
	}
	if c.Phase == lifecycle.PhaseExiting {
		style = style.Strikethrough(true)
	}
	return style.Render(clip(c.Content, width-2))
}

// clip truncates every line of s to width columns so narrower frames never
// rewrap the body.
func clip(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "")
	}
	return strings.Join(lines, "\n")
}

// frameWidth returns the rendered card width in columns, border included.
func (r *cardRenderer) frameWidth(scale float64) int {
	return max(6, int(math.Round(float64(r.term.CardWidth)*scale)))
}

// measure reports the rendered height of key in layout pixels.
func (r *cardRenderer) measure(key string) (float64, bool) {
	if r.stack == nil {
		return 0, false
	}
	toasts := r.stack.Toasts()
	for i, k := range r.stack.Keys() {
		if k != key {
			continue
		}
		card := stack.Card[string]{
			Toast:    toasts[i],
			Category: toasts[i].EffectiveCategory(r.stack.Config().DefaultCategory()),
			Scale:    1,
			Content:  r.render(toasts[i], i),
		}
		card.Placement.Opacity = 1
		rows := lipgloss.Height(r.frame(card, false))
		return float64(rows) * r.term.CellHeight, true
	}
	return 0, false
}

// row converts a layout offset to a terminal row.
func (r *cardRenderer) row(px float64) int {
	return int(math.Round(px / r.term.CellHeight))
}

// col converts a horizontal layout distance to terminal columns.
func (r *cardRenderer) col(px float64) int {
	return int(math.Round(px / r.term.CellWidth))
}

// geometry locates a drawn card on screen, relative to the stack origin.
type geometry struct {
	top, left   int
	width, rows int
}

func (r *cardRenderer) geometry(c stack.Card[string], heights map[string]float64, fallback float64) geometry {
	h, ok := heights[c.Key]
	if !ok {
		h = fallback
	}
	width := r.frameWidth(c.Scale)
	return geometry{
		top:   r.row(c.Placement.OffsetY),
		left:  (r.term.CardWidth-width)/2 + r.col(c.DragX),
		width: width,
		rows:  max(1, r.row(h)),
	}
}

// closeHit reports whether the cell (x, y) is the close glyph of a card.
// The glyph sits at the end of the first body line.
func (g geometry) closeHit(x, y int) bool {
	return y == g.top+1 && x >= g.left+g.width-4 && x < g.left+g.width
}

// shift moves a rendered line horizontally by dx columns and clips it to
// the viewport width.
func shift(line string, dx, viewport int) string {
	switch {
	case dx > 0:
		line = strings.Repeat(" ", dx) + line
	case dx < 0:
		line = ansi.Cut(line, -dx, ansi.StringWidth(line))
	}
	if viewport > 0 {
		line = ansi.Truncate(line, viewport, "")
	}
	return line
}

func age(t, now time.Time) string {
	if t.IsZero() {
		return "just now"
	}
	if now.Sub(t) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

var (
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	closeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	ageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	buttonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

func categoryColor(c model.Category) lipgloss.Color {
	switch c {
	case model.CategorySuccess:
		return lipgloss.Color("10")
	case model.CategoryError:
		return lipgloss.Color("9")
	case model.CategoryWarning:
		return lipgloss.Color("11")
	default:
		return lipgloss.Color("12")
	}
}
