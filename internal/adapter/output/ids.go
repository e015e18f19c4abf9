package output

import (
	"fmt"
	"io"
)

// IDsFormatter outputs just the toast keys, one per line, front to back.
// Useful for piping to other commands.
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes toast keys to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, frame Frame) error {
	for _, r := range frame.Rows {
		if _, err := fmt.Fprintln(w, r.Placement.Key); err != nil {
			return err
		}
	}
	return nil
}
