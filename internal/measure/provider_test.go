package measure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ReportRequiresObservation(t *testing.T) {
	p := NewProvider(nil, nil)

	_, err := p.Report("a", 10)
	require.ErrorIs(t, err, ErrUnobserved)
	assert.Equal(t, 0, p.Len())

	p.Observe("a")
	changed, err := p.Report("a", 10)
	require.NoError(t, err)
	assert.True(t, changed)

	h, ok := p.Height("a")
	assert.True(t, ok)
	assert.Equal(t, 10.0, h)
}

func TestProvider_InvalidHeightLeavesMap(t *testing.T) {
	p := NewProvider(nil, nil)
	p.Observe("a")
	_, err := p.Report("a", 42)
	require.NoError(t, err)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := p.Report("a", bad)
		assert.ErrorIs(t, err, ErrInvalidHeight)
	}

	h, _ := p.Height("a")
	assert.Equal(t, 42.0, h)
}

func TestProvider_OnChangeOnlyWhenChanged(t *testing.T) {
	calls := 0
	p := NewProvider(func() { calls++ }, nil)
	p.Observe("a")

	_, _ = p.Report("a", 30)
	_, _ = p.Report("a", 30)
	changed, err := p.Report("a", 30)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, calls)

	_, _ = p.Report("a", 31)
	assert.Equal(t, 2, calls)
}

func TestProvider_UnobservePrunes(t *testing.T) {
	calls := 0
	p := NewProvider(func() { calls++ }, nil)
	p.Observe("a")
	p.Observe("b")
	_, _ = p.Report("a", 10)
	_, _ = p.Report("b", 20)
	calls = 0

	p.Unobserve("a")

	assert.False(t, p.Observed("a"))
	_, ok := p.Height("a")
	assert.False(t, ok)
	assert.Equal(t, map[string]float64{"b": 20}, p.Snapshot())
	assert.Equal(t, 1, calls)

	// A late report for the unmounted toast is rejected.
	_, err := p.Report("a", 10)
	assert.ErrorIs(t, err, ErrUnobserved)

	// Unobserving an unmeasured key does not signal a change.
	p.Unobserve("zzz")
	assert.Equal(t, 1, calls)
}

func TestProvider_SnapshotIsCopy(t *testing.T) {
	p := NewProvider(nil, nil)
	p.Observe("a")
	_, _ = p.Report("a", 10)

	snap := p.Snapshot()
	snap["a"] = 99

	h, _ := p.Height("a")
	assert.Equal(t, 10.0, h)
}

func TestProvider_Remeasure(t *testing.T) {
	calls := 0
	p := NewProvider(func() { calls++ }, nil)
	p.Observe("a")
	p.Observe("b")
	p.Observe("c")

	sizes := map[string]float64{"a": 80, "b": 60}
	m := MeasurerFunc(func(key string) (float64, bool) {
		h, ok := sizes[key]
		return h, ok
	})

	n, err := p.Remeasure(m, ReasonMount)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, calls, "one change notification per pass")
	assert.Equal(t, map[string]float64{"a": 80, "b": 60}, p.Snapshot())

	n, err = p.Remeasure(m, ReasonResize)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, calls)

	sizes["b"] = -5
	sizes["c"] = 120
	n, err = p.Remeasure(m, ReasonModeSwitch)
	assert.ErrorIs(t, err, ErrInvalidHeight)
	assert.Equal(t, 1, n)
	h, _ := p.Height("b")
	assert.Equal(t, 60.0, h)
}

func TestProvider_RemeasureNilMeasurer(t *testing.T) {
	p := NewProvider(nil, nil)
	p.Observe("a")
	n, err := p.Remeasure(nil, ReasonReflow)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "mount", ReasonMount.String())
	assert.Equal(t, "reflow", ReasonReflow.String())
	assert.Equal(t, "resize", ReasonResize.String())
	assert.Equal(t, "mode_switch", ReasonModeSwitch.String())
	assert.Equal(t, "unknown", Reason(42).String())
}
