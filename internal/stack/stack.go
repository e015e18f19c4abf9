// Package stack composes the lifecycle controller, the measurement
// provider and the layout engine into a toast stack a surface can draw.
//
// A surface supplies a render function producing its own card content
// type, a scheduler bound to its event loop and, optionally, a measurer.
// It forwards pointer events by toast key and redraws from Cards whenever
// the change callback fires.
package stack

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/gesture"
	"github.com/jmylchreest/toastack/internal/layout"
	"github.com/jmylchreest/toastack/internal/lifecycle"
	"github.com/jmylchreest/toastack/internal/measure"
	"github.com/jmylchreest/toastack/internal/model"
)

// ErrNoRender is returned by New without a render function.
var ErrNoRender = errors.New("stack needs a render function")

// RenderFunc produces the visual content of a toast at an index.
type RenderFunc[C any] func(t model.Toast, index int) C

// Card is everything a surface needs to draw one toast.
type Card[C any] struct {
	Toast     model.Toast
	Key       string
	Index     int
	Placement layout.Placement
	Phase     lifecycle.Phase
	Category  model.Category
	Role      string
	DragX     float64
	Dragging  bool
	// Scale combines the layout scale with the drag feedback scale.
	Scale   float64
	Content C
}

// Options configure a Stack.
type Options struct {
	// Config supplies layout, gesture and transition parameters.
	// Defaults to config.DefaultConfig().
	Config *config.Config
	// Key maps a toast to its identity. Defaults to the toast ID.
	Key func(model.Toast) string
	// Scheduler runs transition timers on the surface event loop. Required.
	Scheduler lifecycle.Scheduler
	// Measurer reports rendered card heights. Optional: surfaces that learn
	// heights asynchronously call ReportHeight instead.
	Measurer measure.Measurer

	OnUpdate func([]model.Toast)
	OnRemove func(key string)
	// OnChange fires after any change that requires a redraw.
	OnChange func()

	Logger *slog.Logger
}

// Stack is a toast stack. It is not safe for concurrent use.
type Stack[C any] struct {
	render    RenderFunc[C]
	life      *lifecycle.Controller
	heights   *measure.Provider
	engine    layout.Engine
	measurer  measure.Measurer
	cfg       *config.Config
	onChange  func()
	logger    *slog.Logger
	dragScale float64
}

// New creates an empty, collapsed stack.
func New[C any](render RenderFunc[C], opts Options) (*Stack[C], error) {
	if render == nil {
		return nil, ErrNoRender
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Stack[C]{
		render:    render,
		engine:    layout.NewEngine(layout.ParamsFromConfig(cfg.Stack)),
		measurer:  opts.Measurer,
		cfg:       cfg,
		onChange:  opts.OnChange,
		logger:    logger,
		dragScale: cfg.Gesture.DragScale,
	}
	s.heights = measure.NewProvider(s.changed, logger)

	life, err := lifecycle.New(lifecycle.Options{
		Key:          opts.Key,
		Scheduler:    opts.Scheduler,
		Timeout:      cfg.Transition.Timeout.Duration(),
		Gesture:      gestureParams(cfg),
		Heights:      s.heights,
		OnUpdate:     opts.OnUpdate,
		OnRemove:     opts.OnRemove,
		OnChange:     s.changed,
		OnModeChange: func(model.Mode) { s.remeasure(measure.ReasonModeSwitch) },
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	s.life = life
	return s, nil
}

func gestureParams(cfg *config.Config) gesture.Params {
	return gesture.Params{
		DismissThreshold: cfg.Gesture.DismissThreshold,
		TapEpsilon:       cfg.Gesture.TapEpsilon,
	}
}

// UpdateConfig applies a new configuration. Layout parameters take effect
// immediately; gesture parameters apply to toasts pushed afterwards.
func (s *Stack[C]) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.cfg = cfg
	s.engine = layout.NewEngine(layout.ParamsFromConfig(cfg.Stack))
	s.dragScale = cfg.Gesture.DragScale
	s.life.Configure(cfg.Transition.Timeout.Duration(), gestureParams(cfg))
	s.changed()
}

// Config returns the configuration in effect.
func (s *Stack[C]) Config() *config.Config {
	return s.cfg
}

// SetMeasurer replaces the measurer used for remeasure passes.
func (s *Stack[C]) SetMeasurer(m measure.Measurer) {
	s.measurer = m
}

// Push adds t to the front of the stack.
func (s *Stack[C]) Push(t model.Toast) error {
	if err := s.life.Push(t); err != nil {
		return err
	}
	s.remeasure(measure.ReasonMount)
	return nil
}

// Sync reconciles the stack with an authoritative toast list.
func (s *Stack[C]) Sync(toasts []model.Toast) (lifecycle.SyncResult, error) {
	res, err := s.life.Sync(toasts)
	if len(res.Added) > 0 {
		s.remeasure(measure.ReasonMount)
	}
	if len(res.Updated) > 0 {
		s.remeasure(measure.ReasonReflow)
	}
	return res, err
}

// Dismiss begins the exit of key.
func (s *Stack[C]) Dismiss(key string) bool {
	return s.life.Dismiss(key)
}

// DismissAll begins the exit of every live toast.
func (s *Stack[C]) DismissAll() int {
	return s.life.DismissAll()
}

// Exited signals that the exit transition of key finished on the surface.
func (s *Stack[C]) Exited(key string) bool {
	return s.life.Exited(key)
}

// Expand switches to expanded mode.
func (s *Stack[C]) Expand() bool {
	return s.life.Expand()
}

// Collapse switches back to collapsed mode.
func (s *Stack[C]) Collapse() bool {
	return s.life.Collapse()
}

// Toggle switches between the two modes and reports whether it did.
func (s *Stack[C]) Toggle() bool {
	if s.life.Mode().Expanded() {
		return s.life.Collapse()
	}
	return s.life.Expand()
}

// CanCollapse reports whether the collapse control should be shown.
func (s *Stack[C]) CanCollapse() bool {
	return s.life.CanCollapse()
}

// Mode returns the stack mode.
func (s *Stack[C]) Mode() model.Mode {
	return s.life.Mode()
}

// Len returns the number of toasts, including exiting ones.
func (s *Stack[C]) Len() int {
	return s.life.Len()
}

// Live returns the number of toasts that are not exiting.
func (s *Stack[C]) Live() int {
	return s.life.Live()
}

// Keys returns the toast keys in presentation order.
func (s *Stack[C]) Keys() []string {
	return s.life.Keys()
}

// Toasts returns the toasts in presentation order.
func (s *Stack[C]) Toasts() []model.Toast {
	return s.life.Toasts()
}

// Down forwards pointer-down on key.
func (s *Stack[C]) Down(key string, x float64) bool {
	return s.life.PointerDown(key, x)
}

// Move forwards pointer-move on key.
func (s *Stack[C]) Move(key string, x float64) bool {
	return s.life.PointerMove(key, x)
}

// Up forwards pointer-up on key.
func (s *Stack[C]) Up(key string) gesture.Outcome {
	return s.life.PointerUp(key)
}

// Leave forwards pointer-leave on key.
func (s *Stack[C]) Leave(key string) gesture.Outcome {
	return s.life.PointerLeave(key)
}

// At returns the key of the frontmost interactive toast at vertical
// position y, relative to the top of the stack.
func (s *Stack[C]) At(y float64) (string, bool) {
	placements := s.Layout()
	heights := s.heights.Heights()
	for {
		i := s.engine.HitTest(placements, heights, y)
		if i < 0 {
			return "", false
		}
		if e, ok := s.life.Entry(placements[i].Key); ok && e.Interactive() {
			return e.Key, true
		}
		// Exiting cards are transparent to input; look behind them.
		placements = append(placements[:i:i], placements[i+1:]...)
	}
}

// ReportHeight records a measured card height.
func (s *Stack[C]) ReportHeight(key string, height float64) error {
	if _, err := s.heights.Report(key, height); err != nil {
		s.logger.Error("height report rejected", "toast_id", key, "height", height, "error", err)
		return fmt.Errorf("report height: %w", err)
	}
	return nil
}

// Resize remeasures every card after the surface changed size.
func (s *Stack[C]) Resize() {
	s.remeasure(measure.ReasonResize)
}

// Remeasure remeasures every card for the given reason.
func (s *Stack[C]) Remeasure(reason measure.Reason) {
	s.remeasure(reason)
}

func (s *Stack[C]) remeasure(reason measure.Reason) {
	if _, err := s.heights.Remeasure(s.measurer, reason); err != nil {
		s.logger.Error("remeasure failed", "reason", reason.String(), "error", err)
	}
}

// Heights returns a copy of the measured heights.
func (s *Stack[C]) Heights() map[string]float64 {
	return s.heights.Snapshot()
}

// Layout computes the placement of every toast.
func (s *Stack[C]) Layout() []layout.Placement {
	return s.engine.Compute(s.life.Keys(), s.life.Mode(), s.heights.Heights())
}

// Extent returns the total height of the stack.
func (s *Stack[C]) Extent() float64 {
	return s.engine.Extent(s.Layout(), s.heights.Heights())
}

// Cards renders every toast with its placement and interaction state.
func (s *Stack[C]) Cards() []Card[C] {
	entries := s.life.Entries()
	placements := s.engine.Compute(s.life.Keys(), s.life.Mode(), s.heights.Heights())
	def := s.cfg.DefaultCategory()

	cards := make([]Card[C], len(entries))
	for i, e := range entries {
		p := placements[i]
		cards[i] = Card[C]{
			Toast:     e.Toast,
			Key:       e.Key,
			Index:     i,
			Placement: p,
			Phase:     e.Phase,
			Category:  e.Toast.EffectiveCategory(def),
			Role:      model.Role,
			DragX:     e.Gesture.DeltaX(),
			Dragging:  e.Gesture.Dragging(),
			Scale:     p.Scale * e.Gesture.Scale(s.dragScale),
			Content:   s.render(e.Toast, i),
		}
	}
	return cards
}

func (s *Stack[C]) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
