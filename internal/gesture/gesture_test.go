package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/toastack/internal/model"
)

func newController() *Controller {
	return New(Params{DismissThreshold: 100, TapEpsilon: 2})
}

func TestController_TapWhileExpandedActivates(t *testing.T) {
	c := newController()

	assert.True(t, c.Down(50, model.ModeExpanded))
	assert.True(t, c.Move(51))
	assert.Equal(t, OutcomeActivate, c.Up())
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.DeltaX())
}

func TestController_TapWhileCollapsedActivates(t *testing.T) {
	c := newController()

	assert.True(t, c.Down(50, model.ModeCollapsed))
	assert.Equal(t, StatePressed, c.State())
	assert.False(t, c.Move(300), "collapsed press never drags")
	assert.Zero(t, c.DeltaX())
	assert.Equal(t, OutcomeActivate, c.Up())
	assert.Equal(t, StateIdle, c.State())
}

func TestController_DragBeyondThresholdDismisses(t *testing.T) {
	tests := []struct {
		name string
		to   float64
	}{
		{"right", 151},
		{"left", -51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController()
			c.Down(50, model.ModeExpanded)
			c.Move(tt.to)

			assert.True(t, c.Dragging())
			assert.Equal(t, OutcomeDismiss, c.Up())
			assert.True(t, c.Released())
			assert.Equal(t, tt.to-50, c.DeltaX(), "offset kept for the exit transition")
		})
	}
}

func TestController_DragAtThresholdSnapsBack(t *testing.T) {
	c := newController()
	c.Down(0, model.ModeExpanded)
	c.Move(100)

	assert.Equal(t, OutcomeSnapBack, c.Up())
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.DeltaX())
}

func TestController_DragReturnedHomeIsNotATap(t *testing.T) {
	c := newController()
	c.Down(0, model.ModeExpanded)
	c.Move(60)
	c.Move(0)

	assert.Equal(t, OutcomeSnapBack, c.Up())
}

func TestController_Leave(t *testing.T) {
	t.Run("drag beyond threshold dismisses", func(t *testing.T) {
		c := newController()
		c.Down(0, model.ModeExpanded)
		c.Move(-120)
		assert.Equal(t, OutcomeDismiss, c.Leave())
	})

	t.Run("short drag snaps back", func(t *testing.T) {
		c := newController()
		c.Down(0, model.ModeExpanded)
		c.Move(40)
		assert.Equal(t, OutcomeSnapBack, c.Leave())
		assert.Zero(t, c.DeltaX())
	})

	t.Run("tap candidate is dropped", func(t *testing.T) {
		c := newController()
		c.Down(0, model.ModeCollapsed)
		assert.Equal(t, OutcomeNone, c.Leave())
		assert.Equal(t, StateIdle, c.State())
	})
}

func TestController_ReleasedIgnoresInput(t *testing.T) {
	c := newController()
	c.Close()

	assert.False(t, c.Down(0, model.ModeExpanded))
	assert.False(t, c.Move(500))
	assert.Equal(t, OutcomeNone, c.Up())
	c.Reset()
	assert.True(t, c.Released())
}

func TestController_DownIgnoredWhileActive(t *testing.T) {
	c := newController()
	c.Down(10, model.ModeExpanded)
	assert.False(t, c.Down(90, model.ModeExpanded))

	c.Move(20)
	assert.Equal(t, 10.0, c.DeltaX())
}

func TestController_UpWithoutDown(t *testing.T) {
	c := newController()
	assert.Equal(t, OutcomeNone, c.Up())
	assert.Equal(t, OutcomeNone, c.Leave())
}

func TestController_Reset(t *testing.T) {
	c := newController()
	c.Down(0, model.ModeExpanded)
	c.Move(70)

	c.Reset()

	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.DeltaX())
	assert.Equal(t, OutcomeNone, c.Up())
}

func TestController_Scale(t *testing.T) {
	c := newController()
	assert.Equal(t, 1.0, c.Scale(0.85))

	c.Down(0, model.ModeExpanded)
	assert.Equal(t, 0.85, c.Scale(0.85))

	c.Up()
	assert.Equal(t, 1.0, c.Scale(0.85))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "dragging", StateDragging.String())
	assert.Equal(t, "released", StateReleased.String())
	assert.Equal(t, "snap_back", OutcomeSnapBack.String())
	assert.Equal(t, "dismiss", OutcomeDismiss.String())
}
