package model

import "strings"

// Freedesktop notification urgency levels.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// CategoryFromHints maps freedesktop notification hints onto a toast
// category. An explicit toast category name wins, then well-known
// freedesktop category suffixes, then urgency.
func CategoryFromHints(hint string, urgency int) Category {
	if c, ok := ParseCategory(hint); ok {
		return c
	}

	h := strings.ToLower(hint)
	switch {
	case strings.HasSuffix(h, ".error"), strings.HasSuffix(h, ".failed"):
		return CategoryError
	case strings.HasSuffix(h, ".complete"), strings.HasSuffix(h, ".success"):
		return CategorySuccess
	case strings.HasSuffix(h, ".warning"):
		return CategoryWarning
	}

	if urgency == UrgencyCritical {
		return CategoryError
	}
	return DefaultCategory
}
