// Package lifecycle owns the ordered toast collection of a stack.
//
// Toasts enter at the front, pass through an entry transition, and leave
// only after their exit transition completes. The controller is the single
// mutation path for the toast order, the stack mode and every per-toast
// gesture state; it is not safe for concurrent use.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jmylchreest/toastack/internal/gesture"
	"github.com/jmylchreest/toastack/internal/measure"
	"github.com/jmylchreest/toastack/internal/model"
)

// Errors returned by the controller.
var (
	ErrDuplicateToast = errors.New("toast already in stack")
	ErrEmptyKey       = errors.New("toast key cannot be empty")
	ErrNoScheduler    = errors.New("lifecycle controller needs a scheduler")
)

// Phase is the transition phase of a toast.
type Phase int

const (
	PhaseEntering Phase = iota
	PhaseVisible
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseEntering:
		return "entering"
	case PhaseVisible:
		return "visible"
	case PhaseExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// Entry is one toast in the stack together with its transition phase and
// gesture state.
type Entry struct {
	Toast   model.Toast
	Key     string
	Phase   Phase
	Gesture *gesture.Controller

	cancelEnter Cancel
	cancelExit  Cancel
}

// Interactive reports whether pointer input may reach the entry.
func (e *Entry) Interactive() bool {
	return e.Phase != PhaseExiting
}

// Options configure a Controller.
type Options struct {
	// Key maps a toast to its identity. Defaults to the toast ID.
	Key func(model.Toast) string
	// Scheduler runs transition timers. Required.
	Scheduler Scheduler
	// Timeout is the duration of the entry and exit transitions.
	Timeout time.Duration
	// Gesture configures every per-toast gesture controller.
	Gesture gesture.Params
	// Heights is pruned atomically with each removal. Optional.
	Heights *measure.Provider

	// OnUpdate receives the remaining toasts after every removal.
	OnUpdate func([]model.Toast)
	// OnRemove receives the key of every removed toast, after OnUpdate.
	OnRemove func(key string)
	// OnChange is called after any change that affects layout.
	OnChange func()
	// OnModeChange is called when the stack mode switches.
	OnModeChange func(model.Mode)

	Logger *slog.Logger
}

// SyncResult lists what a Sync call changed, by key.
type SyncResult struct {
	Added     []string
	Updated   []string
	Dismissed []string
}

// Changed reports whether the sync changed anything.
func (r SyncResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Updated) > 0 || len(r.Dismissed) > 0
}

// Controller is the lifecycle controller of one stack.
type Controller struct {
	opts    Options
	entries []*Entry
	mode    model.Mode
	logger  *slog.Logger
}

// New creates an empty, collapsed controller.
func New(opts Options) (*Controller, error) {
	if opts.Scheduler == nil {
		return nil, ErrNoScheduler
	}
	if opts.Key == nil {
		opts.Key = func(t model.Toast) string { return t.ID }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{opts: opts, mode: model.ModeCollapsed, logger: logger}, nil
}

// Key returns the identity of t.
func (c *Controller) Key(t model.Toast) string {
	return c.opts.Key(t)
}

// Mode returns the stack mode.
func (c *Controller) Mode() model.Mode {
	return c.mode
}

// Len returns the number of toasts in the stack, including exiting ones.
func (c *Controller) Len() int {
	return len(c.entries)
}

// Live returns the number of toasts that are not exiting.
func (c *Controller) Live() int {
	n := 0
	for _, e := range c.entries {
		if e.Phase != PhaseExiting {
			n++
		}
	}
	return n
}

// Entries returns the entries in presentation order. Index 0 is the
// newest toast. The slice is a copy; the entries are not.
func (c *Controller) Entries() []*Entry {
	return slices.Clone(c.entries)
}

// Entry returns the entry for key.
func (c *Controller) Entry(key string) (*Entry, bool) {
	i := c.index(key)
	if i < 0 {
		return nil, false
	}
	return c.entries[i], true
}

// Keys returns the keys in presentation order.
func (c *Controller) Keys() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Key
	}
	return out
}

// Toasts returns the toasts in presentation order.
func (c *Controller) Toasts() []model.Toast {
	out := make([]model.Toast, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Toast
	}
	return out
}

func (c *Controller) index(key string) int {
	return slices.IndexFunc(c.entries, func(e *Entry) bool { return e.Key == key })
}

// Push inserts t at the front of the stack and starts its entry transition.
func (c *Controller) Push(t model.Toast) error {
	e, err := c.newEntry(t)
	if err != nil {
		return err
	}
	c.entries = slices.Insert(c.entries, 0, e)
	c.mount(e)
	c.changed()
	return nil
}

func (c *Controller) newEntry(t model.Toast) (*Entry, error) {
	key := c.opts.Key(t)
	if key == "" {
		return nil, ErrEmptyKey
	}
	if c.index(key) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateToast, key)
	}
	return &Entry{
		Toast:   t,
		Key:     key,
		Phase:   PhaseEntering,
		Gesture: gesture.New(c.opts.Gesture),
	}, nil
}

func (c *Controller) mount(e *Entry) {
	if c.opts.Heights != nil {
		c.opts.Heights.Observe(e.Key)
	}
	key := e.Key
	e.cancelEnter = c.opts.Scheduler.AfterFunc(c.opts.Timeout, func() { c.entered(key) })
	c.logger.Debug("toast mounted", "toast_id", key)
}

func (c *Controller) entered(key string) {
	e, ok := c.Entry(key)
	if !ok || e.Phase != PhaseEntering {
		return
	}
	e.Phase = PhaseVisible
	e.cancelEnter = nil
	c.changed()
}

// Sync reconciles the stack with the caller's authoritative list.
// Toasts with new keys mount in the caller's order, toasts whose content
// changed are replaced in place, and toasts missing from the list begin
// their exit. Exiting toasts keep their position until removed.
// Duplicate keys in toasts are skipped and reported in the error.
func (c *Controller) Sync(toasts []model.Toast) (SyncResult, error) {
	var (
		res  SyncResult
		errs []error
	)

	wanted := make(map[string]bool, len(toasts))
	next := make([]*Entry, 0, len(toasts)+len(c.entries))
	for _, t := range toasts {
		key := c.opts.Key(t)
		if key == "" {
			errs = append(errs, ErrEmptyKey)
			continue
		}
		if wanted[key] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateToast, key))
			continue
		}
		wanted[key] = true

		if e, ok := c.Entry(key); ok && e.Phase != PhaseExiting {
			if !e.Toast.SameContent(t) {
				res.Updated = append(res.Updated, key)
			}
			e.Toast = t
			next = append(next, e)
			continue
		} else if ok {
			// A toast re-sent while exiting stays on its way out.
			errs = append(errs, fmt.Errorf("%w: %q is exiting", ErrDuplicateToast, key))
			wanted[key] = false
			continue
		}

		e, err := c.newEntry(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		next = append(next, e)
		res.Added = append(res.Added, key)
	}

	// Exiting and departing entries stay behind their previous neighbour.
	for i, e := range c.entries {
		if wanted[e.Key] {
			continue
		}
		if e.Phase != PhaseExiting {
			res.Dismissed = append(res.Dismissed, e.Key)
		}
		at := 0
		for j := i - 1; j >= 0; j-- {
			if k := slices.Index(next, c.entries[j]); k >= 0 {
				at = k + 1
				break
			}
		}
		next = slices.Insert(next, at, e)
	}

	c.entries = next
	for _, key := range res.Added {
		e, _ := c.Entry(key)
		c.mount(e)
	}
	for _, key := range res.Dismissed {
		c.beginExit(c.entries[c.index(key)])
	}

	if res.Changed() {
		c.changed()
	}
	return res, errors.Join(errs...)
}

// Dismiss starts the exit transition of key. The toast stays in the stack
// until Exited is called for it, either by the scheduled transition timer
// or by a surface that observed the transition end. Dismissing an unknown
// or already exiting toast does nothing and returns false.
func (c *Controller) Dismiss(key string) bool {
	e, ok := c.Entry(key)
	if !ok || e.Phase == PhaseExiting {
		c.logger.Debug("dismiss ignored", "toast_id", key, "known", ok)
		return false
	}
	c.beginExit(e)
	c.changed()
	return true
}

// DismissAll starts the exit transition of every live toast and returns
// how many were dismissed.
func (c *Controller) DismissAll() int {
	n := 0
	for _, e := range c.entries {
		if e.Phase == PhaseExiting {
			continue
		}
		c.beginExit(e)
		n++
	}
	if n > 0 {
		c.changed()
	}
	return n
}

func (c *Controller) beginExit(e *Entry) {
	if e.cancelEnter != nil {
		e.cancelEnter()
		e.cancelEnter = nil
	}
	e.Phase = PhaseExiting
	e.Gesture.Close()
	key := e.Key
	e.cancelExit = c.opts.Scheduler.AfterFunc(c.opts.Timeout, func() { c.Exited(key) })
	c.logger.Debug("toast exiting", "toast_id", key)
}

// Exited completes the exit of key: the toast, its gesture state and its
// height entry are removed together, then the caller is notified. It is
// the only way a toast leaves the stack. Calls for a toast that is not
// exiting are ignored.
func (c *Controller) Exited(key string) bool {
	i := c.index(key)
	if i < 0 || c.entries[i].Phase != PhaseExiting {
		return false
	}

	e := c.entries[i]
	if e.cancelExit != nil {
		e.cancelExit()
	}
	c.entries = slices.Delete(c.entries, i, i+1)
	e.Gesture = nil
	if c.opts.Heights != nil {
		c.opts.Heights.Unobserve(key)
	}

	if len(c.entries) == 0 {
		c.setMode(model.ModeCollapsed)
	}

	c.logger.Debug("toast removed", "toast_id", key, "remaining", len(c.entries))
	c.changed()
	if c.opts.OnUpdate != nil {
		c.opts.OnUpdate(c.Toasts())
	}
	if c.opts.OnRemove != nil {
		c.opts.OnRemove(key)
	}
	return true
}

// Expand switches the stack to expanded mode.
func (c *Controller) Expand() bool {
	if c.mode.Expanded() || len(c.entries) == 0 {
		return false
	}
	c.setMode(model.ModeExpanded)
	c.changed()
	return true
}

// Collapse switches an expanded, non-empty stack back to collapsed mode
// and resets every gesture.
func (c *Controller) Collapse() bool {
	if !c.mode.Expanded() || len(c.entries) == 0 {
		return false
	}
	for _, e := range c.entries {
		e.Gesture.Reset()
	}
	c.setMode(model.ModeCollapsed)
	c.changed()
	return true
}

// CanCollapse reports whether Collapse would take effect. Surfaces show
// their collapse control only when it does.
func (c *Controller) CanCollapse() bool {
	return c.mode.Expanded() && len(c.entries) > 0
}

func (c *Controller) setMode(m model.Mode) {
	if c.mode == m {
		return
	}
	c.mode = m
	c.logger.Debug("stack mode changed", "mode", m.String())
	if c.opts.OnModeChange != nil {
		c.opts.OnModeChange(m)
	}
}

// PointerDown starts a gesture on key at horizontal position x.
// Input for unknown or exiting toasts is ignored.
func (c *Controller) PointerDown(key string, x float64) bool {
	e, ok := c.Entry(key)
	if !ok || !e.Interactive() {
		return false
	}
	if !e.Gesture.Down(x, c.mode) {
		return false
	}
	c.changed()
	return true
}

// PointerMove updates the gesture on key.
func (c *Controller) PointerMove(key string, x float64) bool {
	e, ok := c.Entry(key)
	if !ok || !e.Interactive() {
		return false
	}
	if !e.Gesture.Move(x) {
		return false
	}
	c.changed()
	return true
}

// PointerUp ends the gesture on key and applies its outcome.
func (c *Controller) PointerUp(key string) gesture.Outcome {
	return c.release(key, (*gesture.Controller).Up)
}

// PointerLeave ends the gesture on key because the pointer left the card.
func (c *Controller) PointerLeave(key string) gesture.Outcome {
	return c.release(key, (*gesture.Controller).Leave)
}

func (c *Controller) release(key string, end func(*gesture.Controller) gesture.Outcome) gesture.Outcome {
	e, ok := c.Entry(key)
	if !ok || !e.Interactive() {
		return gesture.OutcomeNone
	}

	outcome := end(e.Gesture)
	switch outcome {
	case gesture.OutcomeActivate:
		if !c.Expand() {
			c.changed()
		}
	case gesture.OutcomeDismiss:
		c.logger.Debug("toast swiped away", "toast_id", key, "delta_x", e.Gesture.DeltaX())
		c.beginExit(e)
		c.changed()
	case gesture.OutcomeSnapBack:
		c.changed()
	}
	return outcome
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

// Configure replaces the transition timeout and gesture parameters.
// Toasts already in the stack keep the gesture parameters they had.
func (c *Controller) Configure(timeout time.Duration, p gesture.Params) {
	c.opts.Timeout = timeout
	c.opts.Gesture = p
}
