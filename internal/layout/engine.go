// Package layout computes where each toast of a stack is drawn.
//
// The engine is a pure function of the ordered toast keys, the stack mode
// and the measured heights. It carries no state between calls, so callers
// recompute placements whenever any of the three inputs change.
package layout

import (
	"math"

	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/model"
)

// Placement is the computed position and styling of one toast.
type Placement struct {
	Index   int     `json:"index" yaml:"index"`
	Key     string  `json:"key" yaml:"key"`
	OffsetY float64 `json:"offset_y" yaml:"offset_y"`
	Opacity float64 `json:"opacity" yaml:"opacity"`
	Scale   float64 `json:"scale" yaml:"scale"`
	ZIndex  int     `json:"z_index" yaml:"z_index"`
}

// Params are the layout constants, in pixels.
type Params struct {
	CollapsedStep  float64
	Gap            float64
	FallbackHeight float64
	MinOpacity     float64
	OpacityFalloff float64
	ScaleFalloff   float64
	ZIndexBase     int
	ZIndexStep     int
}

// ParamsFromConfig extracts layout parameters from the stack configuration.
func ParamsFromConfig(cfg config.StackConfig) Params {
	return Params{
		CollapsedStep:  cfg.CollapsedStep,
		Gap:            cfg.Gap,
		FallbackHeight: cfg.FallbackHeight,
		MinOpacity:     cfg.MinOpacity,
		OpacityFalloff: cfg.OpacityFalloff,
		ScaleFalloff:   cfg.ScaleFalloff,
		ZIndexBase:     cfg.ZIndexBase,
		ZIndexStep:     cfg.ZIndexStep,
	}
}

// DefaultParams returns the parameters of the default configuration.
func DefaultParams() Params {
	return ParamsFromConfig(config.DefaultConfig().Stack)
}

// Engine computes placements. The zero value is not useful; use NewEngine.
type Engine struct {
	params Params
}

// NewEngine creates a layout engine with the given parameters.
// A ZIndexStep below 1 is raised to 1 so stacking order stays strict.
func NewEngine(p Params) Engine {
	if p.ZIndexStep < 1 {
		p.ZIndexStep = 1
	}
	return Engine{params: p}
}

// Params returns the engine parameters.
func (e Engine) Params() Params {
	return e.params
}

// Height returns the measured height for key, or the fallback height when
// the toast has not been measured yet.
func (e Engine) Height(key string, heights map[string]float64) float64 {
	if h, ok := heights[key]; ok {
		return h
	}
	return e.params.FallbackHeight
}

// Compute returns one placement per key, in key order.
// Index 0 is the frontmost toast.
func (e Engine) Compute(keys []string, mode model.Mode, heights map[string]float64) []Placement {
	placements := make([]Placement, len(keys))

	var cumulative float64
	for i, key := range keys {
		p := Placement{
			Index:  i,
			Key:    key,
			ZIndex: e.params.ZIndexBase - i*e.params.ZIndexStep,
		}

		if mode.Expanded() {
			p.OffsetY = cumulative
			p.Opacity = 1
			p.Scale = 1
			cumulative += e.Height(key, heights) + e.params.Gap
		} else {
			fi := float64(i)
			p.OffsetY = fi * e.params.CollapsedStep
			p.Opacity = math.Min(1, math.Max(e.params.MinOpacity, 1-fi*e.params.OpacityFalloff))
			p.Scale = math.Max(0, 1-fi*e.params.ScaleFalloff)
		}

		placements[i] = p
	}

	return placements
}

// Extent returns the total height covered by the placements.
func (e Engine) Extent(placements []Placement, heights map[string]float64) float64 {
	var extent float64
	for _, p := range placements {
		bottom := p.OffsetY + e.Height(p.Key, heights)*p.Scale
		extent = math.Max(extent, bottom)
	}
	return extent
}

// HitTest returns the index of the frontmost placement whose vertical band
// contains y, or -1 when no toast is under y.
func (e Engine) HitTest(placements []Placement, heights map[string]float64, y float64) int {
	hit := -1
	for i, p := range placements {
		top := p.OffsetY
		bottom := top + e.Height(p.Key, heights)*p.Scale
		if y < top || y >= bottom {
			continue
		}
		if hit == -1 || p.ZIndex > placements[hit].ZIndex {
			hit = i
		}
	}
	return hit
}
