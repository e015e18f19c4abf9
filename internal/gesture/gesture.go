// Package gesture turns pointer input on a single toast into a drag offset
// and a release outcome.
package gesture

import (
	"math"

	"github.com/jmylchreest/toastack/internal/model"
)

// State is the gesture state of one toast.
type State int

const (
	// StateIdle is the neutral state.
	StateIdle State = iota
	// StatePressed is a press on a collapsed stack awaiting release.
	// It only exists for tap detection; no drag offset is tracked.
	StatePressed
	// StateDragging tracks a horizontal drag on an expanded stack.
	StateDragging
	// StateReleased is terminal: the toast is closing.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateDragging:
		return "dragging"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Outcome is the single result of ending a gesture.
type Outcome int

const (
	// OutcomeNone means nothing happened.
	OutcomeNone Outcome = iota
	// OutcomeActivate is a tap: the stack should expand.
	OutcomeActivate
	// OutcomeSnapBack is a drag below the threshold: the card returns home.
	OutcomeSnapBack
	// OutcomeDismiss is a drag beyond the threshold: the toast should close.
	OutcomeDismiss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeActivate:
		return "activate"
	case OutcomeSnapBack:
		return "snap_back"
	case OutcomeDismiss:
		return "dismiss"
	default:
		return "unknown"
	}
}

// Params configure the controller, in pixels.
type Params struct {
	DismissThreshold float64
	TapEpsilon       float64
}

// Controller is the gesture state machine of one toast. The zero value is
// an idle controller with zero thresholds; use New.
type Controller struct {
	params  Params
	state   State
	originX float64
	deltaX  float64
	maxAbs  float64
}

// New creates an idle controller.
func New(p Params) *Controller {
	return &Controller{params: p}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// DeltaX returns the current horizontal drag offset.
func (c *Controller) DeltaX() float64 {
	return c.deltaX
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	return c.state == StateDragging
}

// Released reports whether the controller reached its terminal state.
func (c *Controller) Released() bool {
	return c.state == StateReleased
}

// Down handles pointer-down at x. Drags only start while the stack is
// expanded; on a collapsed stack the press is a tap candidate. Any state
// other than idle ignores the event and Down returns false.
func (c *Controller) Down(x float64, mode model.Mode) bool {
	if c.state != StateIdle {
		return false
	}
	c.originX = x
	c.deltaX = 0
	c.maxAbs = 0
	if mode.Expanded() {
		c.state = StateDragging
	} else {
		c.state = StatePressed
	}
	return true
}

// Move handles pointer-move at x. Only a drag reacts.
func (c *Controller) Move(x float64) bool {
	if c.state != StateDragging {
		return false
	}
	c.deltaX = x - c.originX
	c.maxAbs = math.Max(c.maxAbs, math.Abs(c.deltaX))
	return true
}

// Up handles pointer-up and returns the outcome.
func (c *Controller) Up() Outcome {
	return c.release(true)
}

// Leave handles the pointer leaving the card. A drag ends exactly as on
// pointer-up, but a tap candidate is dropped without activating.
func (c *Controller) Leave() Outcome {
	return c.release(false)
}

func (c *Controller) release(tap bool) Outcome {
	switch c.state {
	case StatePressed:
		c.neutral()
		if tap {
			return OutcomeActivate
		}
		return OutcomeNone

	case StateDragging:
		if math.Abs(c.deltaX) > c.params.DismissThreshold {
			c.state = StateReleased
			return OutcomeDismiss
		}
		short := c.maxAbs <= c.params.TapEpsilon
		c.neutral()
		if short {
			if tap {
				return OutcomeActivate
			}
			return OutcomeNone
		}
		return OutcomeSnapBack
	}
	return OutcomeNone
}

// Close moves the controller to its terminal state, keeping the drag
// offset so the exit transition can continue from where the card is.
func (c *Controller) Close() {
	c.state = StateReleased
}

// Reset returns a live controller to neutral idle. A released controller
// stays released.
func (c *Controller) Reset() {
	if c.state == StateReleased {
		return
	}
	c.neutral()
}

func (c *Controller) neutral() {
	c.state = StateIdle
	c.originX = 0
	c.deltaX = 0
	c.maxAbs = 0
}

// Scale returns the visual scale for the card: dragScale while dragging,
// 1 otherwise.
func (c *Controller) Scale(dragScale float64) float64 {
	if c.state == StateDragging {
		return dragScale
	}
	return 1
}
