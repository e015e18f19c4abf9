package model

// Mode is the presentation mode of the whole stack.
// There is exactly one Mode per stack; it is never tracked per toast.
type Mode int

const (
	// ModeCollapsed shows the toasts as a compact pile with falloff styling.
	ModeCollapsed Mode = iota
	// ModeExpanded shows every toast at full size, spaced by measured height.
	ModeExpanded
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	switch m {
	case ModeCollapsed:
		return "collapsed"
	case ModeExpanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// Expanded reports whether the mode is ModeExpanded.
func (m Mode) Expanded() bool {
	return m == ModeExpanded
}
