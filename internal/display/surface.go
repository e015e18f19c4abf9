package display

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/dbus"
	"github.com/jmylchreest/toastack/internal/gesture"
	"github.com/jmylchreest/toastack/internal/lifecycle"
	"github.com/jmylchreest/toastack/internal/measure"
	"github.com/jmylchreest/toastack/internal/model"
	"github.com/jmylchreest/toastack/internal/stack"
)

const ageRefresh = 30 * time.Second

// Options configure a Surface.
type Options struct {
	Config *config.Config
	// CSS is the initial stylesheet, usually a resolved theme.
	CSS string
	// Scheduler defaults to the GTK main loop.
	Scheduler lifecycle.Scheduler
	// OnClosed runs once a toast has finished its exit and left the stack.
	OnClosed func(key string, reason dbus.CloseReason)
	Logger   *slog.Logger
}

// Surface shows a toast stack in a layer-shell overlay window.
type Surface struct {
	cfg      *config.Config
	logger   *slog.Logger
	sched    lifecycle.Scheduler
	onClosed func(key string, reason dbus.CloseReason)

	window   *gtk.Window
	fixed    *gtk.Fixed
	collapse *gtk.Button
	style    *style

	stack   *stack.Stack[*cardWidget]
	cards   map[string]*cardWidget
	reasons map[string]dbus.CloseReason

	pressed string
	startX  float64
	queued  bool
	ticking bool
	now     func() time.Time
}

// NewSurface creates the overlay window. It stays hidden while the stack
// is empty.
func NewSurface(app *gtk.Application, opts Options) (*Surface, error) {
	if app == nil {
		return nil, &DisplayError{Message: "no GTK application"}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = NewScheduler()
	}

	s := &Surface{
		cfg:      cfg,
		logger:   logger,
		sched:    sched,
		onClosed: opts.OnClosed,
		style:    newStyle(),
		cards:    make(map[string]*cardWidget),
		reasons:  make(map[string]dbus.CloseReason),
		now:      time.Now,
	}

	st, err := stack.New(s.render, stack.Options{
		Config:    cfg,
		Scheduler: sched,
		Measurer:  measure.MeasurerFunc(s.measure),
		OnRemove:  s.removed,
		OnChange:  s.queueRelayout,
		Logger:    logger,
	})
	if err != nil {
		return nil, &DisplayError{Message: "failed to create stack", Cause: err}
	}
	s.stack = st

	s.buildWindow(app)
	if opts.CSS != "" {
		s.style.load(opts.CSS)
	}
	return s, nil
}

func (s *Surface) buildWindow(app *gtk.Application) {
	s.window = gtk.NewWindow()
	s.window.SetApplication(app)
	s.window.SetDecorated(false)
	s.window.SetResizable(false)
	s.window.AddCSSClass("toast-stack")

	initLayerShell(s.window)
	anchor(s.window, s.cfg.Display)
	placeOnMonitor(s.window, s.cfg.Display.Monitor, s.logger)

	s.collapse = gtk.NewButtonWithLabel("Collapse All")
	s.collapse.AddCSSClass("toast-stack-collapse")
	s.collapse.SetHAlign(gtk.AlignEnd)
	s.collapse.SetVisible(false)
	s.collapse.ConnectClicked(func() {
		s.stack.Collapse()
	})

	s.fixed = gtk.NewFixed()
	s.fixed.SetSizeRequest(s.cfg.Display.Width, 0)

	drag := gtk.NewGestureDrag()
	drag.SetButton(gdk.BUTTON_PRIMARY)
	drag.ConnectDragBegin(s.dragBegin)
	drag.ConnectDragUpdate(s.dragUpdate)
	drag.ConnectDragEnd(s.dragEnd)
	s.fixed.AddController(drag)

	motion := gtk.NewEventControllerMotion()
	motion.ConnectLeave(s.pointerLeft)
	s.fixed.AddController(motion)

	root := gtk.NewBox(gtk.OrientationVertical, 0)
	if s.cfg.IsBottom() {
		root.Append(s.fixed)
		root.Append(s.collapse)
	} else {
		root.Append(s.collapse)
		root.Append(s.fixed)
	}
	s.window.SetChild(root)
}

// Sync reconciles the stack with the authoritative toast list. Toasts
// missing from the list close with CloseReasonClosed unless a reason was
// already recorded.
func (s *Surface) Sync(toasts []model.Toast) error {
	res, err := s.stack.Sync(toasts)
	for _, key := range res.Dismissed {
		s.recordReason(key, dbus.CloseReasonClosed)
	}
	if res.Changed() {
		s.logger.Debug("stack synced",
			"added", len(res.Added),
			"updated", len(res.Updated),
			"dismissed", len(res.Dismissed),
		)
	}
	if err != nil {
		return &DisplayError{Message: "failed to sync toasts", Cause: err}
	}
	return nil
}

// Close begins the exit of key. It returns false for unknown or already
// closing toasts.
func (s *Surface) Close(key string, reason dbus.CloseReason) bool {
	if !s.stack.Dismiss(key) {
		s.logger.Debug("close ignored", "toast_id", key)
		return false
	}
	s.recordReason(key, reason)
	return true
}

// CloseAll begins the exit of every live toast.
func (s *Surface) CloseAll(reason dbus.CloseReason) int {
	for _, key := range s.stack.Keys() {
		s.recordReason(key, reason)
	}
	return s.stack.DismissAll()
}

// Len returns the number of toasts on screen, closing ones included.
func (s *Surface) Len() int {
	return s.stack.Len()
}

// UpdateConfig applies a reloaded configuration.
func (s *Surface) UpdateConfig(cfg *config.Config) {
	s.cfg = cfg
	s.stack.UpdateConfig(cfg)
	anchor(s.window, cfg.Display)
	placeOnMonitor(s.window, cfg.Display.Monitor, s.logger)
	s.stack.Resize()
	s.queueRelayout()
}

// SetCSS replaces the active stylesheet.
func (s *Surface) SetCSS(css string) {
	s.style.load(css)
	s.stack.Remeasure(measure.ReasonReflow)
}

// Destroy closes the window.
func (s *Surface) Destroy() {
	s.window.Destroy()
}

func (s *Surface) recordReason(key string, reason dbus.CloseReason) {
	if _, ok := s.reasons[key]; !ok {
		s.reasons[key] = reason
	}
}

// render returns the cached widget for t, refreshed for the current mode.
func (s *Surface) render(t model.Toast, _ int) *cardWidget {
	w, ok := s.cards[t.ID]
	if !ok {
		key := t.ID
		w = newCardWidget(key, func() { s.Close(key, dbus.CloseReasonDismissed) })
		s.cards[key] = w
	}
	w.update(t, s.stack.Mode().Expanded(), s.now())
	return w
}

func (s *Surface) widget(key string) (*cardWidget, bool) {
	toasts := s.stack.Toasts()
	for i, k := range s.stack.Keys() {
		if k == key {
			return s.render(toasts[i], i), true
		}
	}
	return nil, false
}

// measure reports card heights. Collapsed cards have a fixed height.
func (s *Surface) measure(key string) (float64, bool) {
	w, ok := s.widget(key)
	if !ok {
		return 0, false
	}
	if !w.expanded {
		return s.cfg.Toast.CollapsedHeight, true
	}
	return w.height(s.cfg.Display.Width), true
}

func (s *Surface) removed(key string) {
	if w, ok := s.cards[key]; ok {
		if w.mounted {
			s.fixed.Remove(w.box)
		}
		delete(s.cards, key)
	}
	if s.pressed == key {
		s.pressed = ""
	}

	reason, ok := s.reasons[key]
	if !ok {
		reason = dbus.CloseReasonUndefined
	}
	delete(s.reasons, key)

	s.logger.Debug("toast removed", "toast_id", key, "reason", reason.String())
	if s.onClosed != nil {
		s.onClosed(key, reason)
	}
}

// queueRelayout coalesces redraws into one pass before the next frame.
func (s *Surface) queueRelayout() {
	if s.queued {
		return
	}
	s.queued = true
	glib.IdleAdd(func() {
		s.queued = false
		s.relayout()
	})
}

func (s *Surface) relayout() {
	cards := s.stack.Cards()
	if len(cards) == 0 {
		s.window.SetVisible(false)
		return
	}

	heights := s.stack.Heights()
	extent := s.stack.Extent()
	width := s.cfg.Display.Width
	scheme := colorScheme()

	s.collapse.SetVisible(s.stack.CanCollapse())
	s.fixed.SetSizeRequest(width, int(math.Ceil(extent)))

	// Children of a gtk.Fixed paint in order; lowest z first.
	slices.SortStableFunc(cards, func(a, b stack.Card[*cardWidget]) int {
		return cmp.Compare(a.Placement.ZIndex, b.Placement.ZIndex)
	})

	for _, c := range cards {
		w := c.Content
		h, ok := heights[c.Key]
		if !ok {
			h = s.cfg.Stack.FallbackHeight
		}

		cw := max(1, int(math.Round(float64(width)*c.Scale)))
		x := float64(width-cw)/2 + c.DragX
		y := c.Placement.OffsetY
		if s.cfg.IsBottom() {
			y = extent - c.Placement.OffsetY - h
		}

		if w.mounted {
			s.fixed.Move(w.box, x, y)
		} else {
			s.fixed.Put(w.box, x, y)
			w.mounted = true
		}

		minHeight := -1
		if !w.expanded {
			minHeight = int(s.cfg.Toast.CollapsedHeight)
		}
		w.box.SetSizeRequest(cw, minHeight)
		w.box.SetOpacity(c.Placement.Opacity)
		w.box.SetCSSClasses(w.classes(c.Category, c.Phase == lifecycle.PhaseExiting, c.Dragging, scheme))
		w.box.InsertBefore(s.fixed, nil)
	}

	if !s.window.Visible() {
		s.window.Present()
	}
	s.tick()
}

// tick refreshes card ages while the stack is visible.
func (s *Surface) tick() {
	if s.ticking {
		return
	}
	s.ticking = true
	s.sched.AfterFunc(ageRefresh, func() {
		s.ticking = false
		if s.stack.Len() > 0 {
			s.queueRelayout()
		}
	})
}

// hit maps a container y coordinate to the toast under it.
func (s *Surface) hit(y float64) (string, bool) {
	if s.cfg.IsBottom() {
		y = s.stack.Extent() - y
	}
	return s.stack.At(y)
}

func (s *Surface) dragBegin(x, y float64) {
	key, ok := s.hit(y)
	if !ok {
		return
	}
	if w, ok := s.cards[key]; ok && w.closeHovered() {
		return
	}
	if s.stack.Down(key, x) {
		s.pressed = key
		s.startX = x
	}
}

func (s *Surface) dragUpdate(offsetX, _ float64) {
	if s.pressed == "" {
		return
	}
	s.stack.Move(s.pressed, s.startX+offsetX)
}

func (s *Surface) dragEnd(_, _ float64) {
	s.release(s.stack.Up)
}

func (s *Surface) pointerLeft() {
	s.release(s.stack.Leave)
}

func (s *Surface) release(end func(key string) gesture.Outcome) {
	if s.pressed == "" {
		return
	}
	key := s.pressed
	s.pressed = ""
	if end(key) == gesture.OutcomeDismiss {
		s.recordReason(key, dbus.CloseReasonDismissed)
	}
}
