package display

import (
	"time"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastack/internal/model"
)

// cardWidget is the widget tree of one toast card.
type cardWidget struct {
	key     string
	box     *gtk.Box
	title   *gtk.Label
	message *gtk.Label
	age     *gtk.Label
	close   *gtk.Button

	toast    model.Toast
	expanded bool
	mounted  bool
}

func newCardWidget(key string, onClose func()) *cardWidget {
	c := &cardWidget{key: key}

	c.box = gtk.NewBox(gtk.OrientationVertical, 4)
	c.box.AddCSSClass("toast-card")

	header := gtk.NewBox(gtk.OrientationHorizontal, 8)
	header.AddCSSClass("toast-header")

	c.title = gtk.NewLabel("")
	c.title.AddCSSClass("toast-title")
	c.title.SetXAlign(0)
	c.title.SetHExpand(true)
	c.title.SetEllipsize(pango.EllipsizeEnd)
	header.Append(c.title)

	c.close = gtk.NewButtonFromIconName("window-close-symbolic")
	c.close.AddCSSClass("toast-close")
	c.close.AddCSSClass("flat")
	c.close.SetTooltipText("Dismiss")
	c.close.ConnectClicked(onClose)
	header.Append(c.close)

	c.message = gtk.NewLabel("")
	c.message.AddCSSClass("toast-message")
	c.message.SetXAlign(0)
	c.message.SetWrapMode(pango.WrapWordChar)

	c.age = gtk.NewLabel("")
	c.age.AddCSSClass("toast-age")
	c.age.SetXAlign(0)

	c.box.Append(header)
	c.box.Append(c.message)
	c.box.Append(c.age)
	return c
}

// update refreshes the labels. Collapsed cards show one ellipsized message
// line; expanded cards wrap the full message.
func (c *cardWidget) update(t model.Toast, expanded bool, now time.Time) {
	if !c.toast.SameContent(t) || c.toast.ID == "" {
		title := t.Title
		if title == "" {
			title = t.MessageTruncated(60)
		}
		c.title.SetText(title)
		c.message.SetText(t.Message)
		c.message.SetVisible(t.Message != "")
	}
	c.toast = t

	c.expanded = expanded
	if expanded {
		c.message.SetWrap(true)
		c.message.SetLines(-1)
		c.message.SetEllipsize(pango.EllipsizeNone)
	} else {
		c.message.SetWrap(false)
		c.message.SetLines(1)
		c.message.SetEllipsize(pango.EllipsizeEnd)
	}

	c.age.SetText(age(t.CreatedAt, now))
}

// classes returns the CSS classes for the card's current state.
func (c *cardWidget) classes(category model.Category, exiting, dragging bool, scheme string) []string {
	out := []string{"toast-card", "category-" + string(category), scheme}
	if c.expanded {
		out = append(out, "expanded")
	} else {
		out = append(out, "collapsed")
	}
	if exiting {
		out = append(out, "exiting")
	}
	if dragging {
		out = append(out, "dragging")
	}
	if app := payloadString(c.toast.Payload, "app_name"); app != "" {
		if cls := sanitizeClassName(app); cls != "" {
			out = append(out, "app-"+cls)
		}
	}
	return out
}

// closeHovered reports whether the pointer is over the close button.
func (c *cardWidget) closeHovered() bool {
	return c.close.StateFlags()&gtk.StateFlagPrelight != 0
}

// height measures the natural height of the card at width.
func (c *cardWidget) height(width int) float64 {
	_, natural, _, _ := c.box.Measure(gtk.OrientationVertical, width)
	return float64(natural)
}

func age(t, now time.Time) string {
	if t.IsZero() || now.Sub(t) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// payloadString reads a string field from a map payload.
func payloadString(p any, key string) string {
	switch m := p.(type) {
	case map[string]any:
		s, _ := m[key].(string)
		return s
	case map[string]string:
		return m[key]
	}
	return ""
}
