// Package input provides input adapters for toast sources.
package input

import (
	"context"
	"os/exec"

	"github.com/jmylchreest/toastack/internal/model"
)

// InputAdapter fetches toasts from a source.
type InputAdapter interface {
	// Name returns the adapter identifier (e.g., "stdin", "file", "dunst").
	Name() string

	// Import fetches toasts from the source.
	// Returns the toasts and any error encountered.
	Import(ctx context.Context) ([]model.Toast, error)
}

// DetectDaemon returns the name of the first available notification daemon.
// Returns empty string if none found.
func DetectDaemon() string {
	if _, err := exec.LookPath("dunstctl"); err == nil {
		return "dunst"
	}
	return ""
}

// NewAdapter creates an InputAdapter for the specified source.
// path is only used by the "file" source.
func NewAdapter(source, path string) (InputAdapter, error) {
	switch source {
	case "dunst":
		return NewDunstAdapter(), nil
	case "stdin", "-":
		return NewStdinAdapter(), nil
	case "file":
		if path == "" {
			return nil, &AdapterError{Source: source, Message: "file source needs a path"}
		}
		return NewFileAdapter(path), nil
	default:
		return nil, &AdapterError{
			Source:  source,
			Message: "unknown or unavailable adapter",
		}
	}
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
