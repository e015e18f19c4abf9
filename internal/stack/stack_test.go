package stack

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/gesture"
	"github.com/jmylchreest/toastack/internal/lifecycle"
	"github.com/jmylchreest/toastack/internal/measure"
	"github.com/jmylchreest/toastack/internal/model"
)

type fixture struct {
	s       *Stack[string]
	sched   *lifecycle.ManualScheduler
	sizes   map[string]float64
	removed []string
	synced  []model.Toast
	redraws int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sched: lifecycle.NewManualScheduler(),
		sizes: map[string]float64{},
	}
	s, err := New(func(t model.Toast, i int) string {
		return fmt.Sprintf("%d:%s", i, t.Title)
	}, Options{
		Scheduler: f.sched,
		Measurer: measure.MeasurerFunc(func(key string) (float64, bool) {
			h, ok := f.sizes[key]
			return h, ok
		}),
		OnUpdate: func(ts []model.Toast) { f.synced = ts },
		OnRemove: func(key string) { f.removed = append(f.removed, key) },
		OnChange: func() { f.redraws++ },
	})
	require.NoError(t, err)
	f.s = s
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	f.sizes["1"], f.sizes["2"], f.sizes["3"], f.sizes["4"] = 80, 60, 100, 50
	cats := []model.Category{model.CategorySuccess, model.CategoryError, model.CategoryInfo, model.CategoryWarning}
	for i := 4; i >= 1; i-- {
		id := fmt.Sprint(i)
		require.NoError(t, f.s.Push(model.Toast{ID: id, Title: "toast " + id, Category: cats[i-1]}))
	}
}

func offsets[C any](cards []Card[C]) []float64 {
	out := make([]float64, len(cards))
	for i, c := range cards {
		out[i] = c.Placement.OffsetY
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	_, err := New[string](nil, Options{Scheduler: lifecycle.NewManualScheduler()})
	assert.ErrorIs(t, err, ErrNoRender)

	_, err = New(func(model.Toast, int) string { return "" }, Options{})
	assert.ErrorIs(t, err, lifecycle.ErrNoScheduler)
}

func TestStack_FourToastScenario(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	cards := f.s.Cards()
	require.Len(t, cards, 4)
	assert.Equal(t, []float64{0, 8, 16, 24}, offsets(cards))
	assert.Equal(t, 1.0, cards[0].Placement.Opacity)
	assert.Equal(t, "0:toast 1", cards[0].Content)
	assert.Equal(t, model.CategoryWarning, cards[3].Category)
	assert.Equal(t, model.Role, cards[0].Role)

	require.True(t, f.s.Expand())
	cards = f.s.Cards()
	assert.Equal(t, []float64{0, 100, 180, 300}, offsets(cards))
	assert.Equal(t, 350.0, f.s.Extent())
}

func TestStack_DismissMidStack(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.s.Expand()

	require.True(t, f.s.Dismiss("2"))
	cards := f.s.Cards()
	assert.Equal(t, lifecycle.PhaseExiting, cards[1].Phase)
	assert.Len(t, cards, 4)

	f.sched.Advance(300 * time.Millisecond)

	assert.Equal(t, []string{"1", "3", "4"}, f.s.Keys())
	assert.NotContains(t, f.s.Heights(), "2")
	assert.Equal(t, []string{"2"}, f.removed)
	assert.Len(t, f.synced, 3)
	assert.Equal(t, []float64{0, 100, 220}, offsets(f.s.Cards()))
}

func TestStack_SwipeToDismiss(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.s.Expand()

	key, ok := f.s.At(110)
	require.True(t, ok)
	require.Equal(t, "2", key)

	require.True(t, f.s.Down(key, 20))
	require.True(t, f.s.Move(key, -90))

	card := f.s.Cards()[1]
	assert.True(t, card.Dragging)
	assert.Equal(t, -110.0, card.DragX)
	assert.Equal(t, 0.85, card.Scale)

	assert.Equal(t, gesture.OutcomeDismiss, f.s.Up(key))
	f.sched.Flush()
	assert.Equal(t, []string{"1", "3", "4"}, f.s.Keys())
}

func TestStack_ShortDragSnapsBack(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.s.Expand()

	f.s.Down("1", 0)
	f.s.Move("1", 60)
	assert.Equal(t, gesture.OutcomeSnapBack, f.s.Up("1"))

	card := f.s.Cards()[0]
	assert.Zero(t, card.DragX)
	assert.False(t, card.Dragging)
	assert.Equal(t, 1.0, card.Scale)
}

func TestStack_TapExpands(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	key, ok := f.s.At(5)
	require.True(t, ok)
	f.s.Down(key, 30)
	assert.Equal(t, gesture.OutcomeActivate, f.s.Up(key))
	assert.Equal(t, model.ModeExpanded, f.s.Mode())
	assert.True(t, f.s.CanCollapse())
}

func TestStack_AtSkipsExitingCards(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	f.s.Dismiss("1")
	key, ok := f.s.At(10)
	require.True(t, ok)
	assert.Equal(t, "2", key)

	_, ok = f.s.At(1000)
	assert.False(t, ok)
}

func TestStack_ModeSwitchRemeasures(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	// Cards grow when expanded.
	f.sizes["1"] = 140
	f.s.Expand()

	offsetsExpanded := offsets(f.s.Cards())
	assert.Equal(t, 160.0, offsetsExpanded[1])
}

func TestStack_ResizeRemeasures(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.s.Expand()

	f.sizes["1"] = 30
	f.s.Resize()
	assert.Equal(t, 50.0, offsets(f.s.Cards())[1])
}

func TestStack_ReportHeight(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	require.NoError(t, f.s.ReportHeight("1", 90))
	assert.Equal(t, 90.0, f.s.Heights()["1"])

	err := f.s.ReportHeight("ghost", 10)
	assert.ErrorIs(t, err, measure.ErrUnobserved)
	assert.NotContains(t, f.s.Heights(), "ghost")

	err = f.s.ReportHeight("1", -3)
	assert.ErrorIs(t, err, measure.ErrInvalidHeight)
	assert.Equal(t, 90.0, f.s.Heights()["1"])
}

func TestStack_SyncReflows(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.s.Expand()

	f.sizes["3"] = 140
	res, err := f.s.Sync([]model.Toast{
		{ID: "1", Title: "toast 1", Category: model.CategorySuccess},
		{ID: "2", Title: "toast 2", Category: model.CategoryError},
		{ID: "3", Title: "toast 3 grew a much longer title", Category: model.CategoryInfo},
		{ID: "4", Title: "toast 4", Category: model.CategoryWarning},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, res.Updated)
	assert.Equal(t, []float64{0, 100, 180, 340}, offsets(f.s.Cards()))
}

func TestStack_CollapseAndToggle(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.s.Toggle(), "empty stack cannot expand")

	f.seed(t)
	assert.True(t, f.s.Toggle())
	assert.Equal(t, model.ModeExpanded, f.s.Mode())
	assert.True(t, f.s.Toggle())
	assert.Equal(t, model.ModeCollapsed, f.s.Mode())
	assert.False(t, f.s.Collapse())
}

func TestStack_DismissAllEmptiesAndCollapses(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.s.Expand()

	assert.Equal(t, 4, f.s.DismissAll())
	assert.Zero(t, f.s.Live())
	f.sched.Flush()

	assert.Zero(t, f.s.Len())
	assert.Empty(t, f.s.Heights())
	assert.Equal(t, model.ModeCollapsed, f.s.Mode())
}

func TestStack_UpdateConfig(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	cfg := config.DefaultConfig()
	cfg.Stack.CollapsedStep = 12
	before := f.redraws
	f.s.UpdateConfig(cfg)

	assert.Greater(t, f.redraws, before)
	assert.Equal(t, []float64{0, 12, 24, 36}, offsets(f.s.Cards()))
	assert.Same(t, cfg, f.s.Config())
}

func TestStack_DefaultCategoryApplied(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Push(model.Toast{ID: "x", Title: "plain"}))
	assert.Equal(t, model.CategoryInfo, f.s.Cards()[0].Category)
}
