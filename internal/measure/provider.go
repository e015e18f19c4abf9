// Package measure tracks the rendered height of every mounted toast.
//
// A Provider only holds heights for toasts it observes. Observation starts
// when a toast mounts and ends when it unmounts, at which point the height
// entry is pruned so cumulative offsets never include a card that is gone.
package measure

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
)

// Sentinel errors for bookkeeping violations.
var (
	ErrUnobserved    = errors.New("height reported for an unobserved toast")
	ErrInvalidHeight = errors.New("height must be a finite non-negative number")
)

// Reason describes why a remeasure pass runs.
type Reason int

const (
	ReasonMount Reason = iota
	ReasonReflow
	ReasonResize
	ReasonModeSwitch
)

func (r Reason) String() string {
	switch r {
	case ReasonMount:
		return "mount"
	case ReasonReflow:
		return "reflow"
	case ReasonResize:
		return "resize"
	case ReasonModeSwitch:
		return "mode_switch"
	default:
		return "unknown"
	}
}

// Measurer reports the current rendered height of a toast card.
// The second result is false when the card cannot be measured yet, in
// which case the previous height (or the layout fallback) stays in effect.
type Measurer interface {
	Measure(key string) (float64, bool)
}

// MeasurerFunc adapts a function to the Measurer interface.
type MeasurerFunc func(key string) (float64, bool)

// Measure calls f(key).
func (f MeasurerFunc) Measure(key string) (float64, bool) {
	return f(key)
}

// Provider owns the height map. It is not safe for concurrent use.
type Provider struct {
	observed map[string]struct{}
	heights  map[string]float64
	onChange func()
	logger   *slog.Logger
}

// NewProvider creates a Provider. onChange, when non-nil, is called once
// after any operation that changed at least one height.
func NewProvider(onChange func(), logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		observed: make(map[string]struct{}),
		heights:  make(map[string]float64),
		onChange: onChange,
		logger:   logger,
	}
}

// Observe starts tracking key. Observing an already observed key is a no-op.
func (p *Provider) Observe(key string) {
	p.observed[key] = struct{}{}
}

// Unobserve stops tracking key and prunes its height immediately.
func (p *Provider) Unobserve(key string) {
	delete(p.observed, key)
	if _, ok := p.heights[key]; ok {
		delete(p.heights, key)
		p.changed()
	}
}

// Observed reports whether key is tracked.
func (p *Provider) Observed(key string) bool {
	_, ok := p.observed[key]
	return ok
}

// Report records a measured height. It returns whether the stored value
// changed. Bookkeeping violations return an error and leave the map as is.
func (p *Provider) Report(key string, height float64) (bool, error) {
	changed, err := p.set(key, height)
	if err != nil {
		return false, err
	}
	if changed {
		p.changed()
	}
	return changed, nil
}

func (p *Provider) set(key string, height float64) (bool, error) {
	if _, ok := p.observed[key]; !ok {
		return false, fmt.Errorf("%w: %q", ErrUnobserved, key)
	}
	if height < 0 || math.IsNaN(height) || math.IsInf(height, 0) {
		return false, fmt.Errorf("%w: %q reported %v", ErrInvalidHeight, key, height)
	}
	if old, ok := p.heights[key]; ok && old == height {
		return false, nil
	}
	p.heights[key] = height
	return true, nil
}

// Height returns the last known height of key.
func (p *Provider) Height(key string) (float64, bool) {
	h, ok := p.heights[key]
	return h, ok
}

// Heights returns the live height map. Callers must not modify it.
func (p *Provider) Heights() map[string]float64 {
	return p.heights
}

// Snapshot returns a copy of the height map.
func (p *Provider) Snapshot() map[string]float64 {
	return maps.Clone(p.heights)
}

// Len returns the number of stored heights.
func (p *Provider) Len() int {
	return len(p.heights)
}

// Remeasure asks m for the height of every observed toast and stores the
// results. onChange fires at most once for the whole pass.
func (p *Provider) Remeasure(m Measurer, reason Reason) (int, error) {
	if m == nil {
		return 0, nil
	}

	var (
		updated int
		errs    []error
	)
	for key := range p.observed {
		h, ok := m.Measure(key)
		if !ok {
			continue
		}
		changed, err := p.set(key, h)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if changed {
			updated++
		}
	}

	if updated > 0 {
		p.logger.Debug("remeasured toasts", "reason", reason.String(), "updated", updated)
		p.changed()
	}
	return updated, errors.Join(errs...)
}

func (p *Provider) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}
