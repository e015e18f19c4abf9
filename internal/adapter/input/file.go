package input

import (
	"context"
	"os"

	"github.com/jmylchreest/toastack/internal/model"
)

// FileAdapter reads toasts from a feed file on disk.
type FileAdapter struct {
	path string
}

// NewFileAdapter creates a FileAdapter for path.
func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{path: path}
}

// Name returns the adapter identifier.
func (a *FileAdapter) Name() string {
	return "file"
}

// Path returns the feed file path.
func (a *FileAdapter) Path() string {
	return a.path
}

// Import reads and parses the feed file. A missing file yields no toasts.
func (a *FileAdapter) Import(ctx context.Context) ([]model.Toast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &AdapterError{
			Source:  "file",
			Message: "failed to read " + a.path,
			Err:     err,
		}
	}
	return Parse("file", data)
}
