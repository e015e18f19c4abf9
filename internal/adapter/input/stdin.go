package input

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastack/internal/model"
)

// StdinAdapter reads toasts from standard input.
type StdinAdapter struct {
	reader io.Reader
}

// NewStdinAdapter creates a new StdinAdapter reading from os.Stdin.
func NewStdinAdapter() *StdinAdapter {
	return &StdinAdapter{reader: os.Stdin}
}

// NewStdinAdapterWithReader creates a new StdinAdapter with a custom reader.
func NewStdinAdapterWithReader(r io.Reader) *StdinAdapter {
	return &StdinAdapter{reader: r}
}

// Name returns the adapter identifier.
func (a *StdinAdapter) Name() string {
	return "stdin"
}

// Import reads toasts from standard input. See Parse for the formats.
func (a *StdinAdapter) Import(ctx context.Context) ([]model.Toast, error) {
	data, err := io.ReadAll(io.LimitReader(a.reader, maxInputSize))
	if err != nil {
		return nil, &AdapterError{
			Source:  "stdin",
			Message: "failed to read stdin",
			Err:     err,
		}
	}
	return Parse("stdin", data)
}

const maxInputSize = 10 * 1024 * 1024 // 10MB max

// toastEntry is the on-the-wire toast shape accepted by every text format.
type toastEntry struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Message  string `json:"message" yaml:"message"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Payload  any    `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Parse decodes toasts from data. Supported formats:
//  1. dunstctl history JSON
//  2. a JSON array of toasts
//  3. JSON lines, one toast object per line
//  4. a YAML sequence of toasts
//
// Entries without any content are skipped. Categories are kept as given;
// filling defaults is the consumer's job.
func Parse(source string, data []byte) ([]model.Toast, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if bytes.Contains(trimmed, []byte(`"data"`)) {
		if toasts, err := ParseDunstHistory(trimmed); err == nil && len(toasts) > 0 {
			return toasts, nil
		}
	}

	var (
		entries []toastEntry
		err     error
	)
	switch trimmed[0] {
	case '[':
		err = json.Unmarshal(trimmed, &entries)
	case '{':
		entries, err = parseJSONLines(trimmed)
	default:
		err = yaml.Unmarshal(trimmed, &entries)
	}
	if err != nil {
		return nil, &AdapterError{
			Source:  source,
			Message: "failed to parse toast input",
			Err:     err,
		}
	}

	toasts := make([]model.Toast, 0, len(entries))
	for _, e := range entries {
		t := model.Toast{
			ID:       strings.TrimSpace(e.ID),
			Title:    sanitizeString(e.Title),
			Message:  sanitizeString(e.Message),
			Category: model.Category(strings.ToLower(strings.TrimSpace(e.Category))),
			Payload:  e.Payload,
		}
		if t.Title == "" && t.Message == "" {
			continue
		}
		toasts = append(toasts, t)
	}
	return toasts, nil
}

func parseJSONLines(data []byte) ([]toastEntry, error) {
	var entries []toastEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), maxInputSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e toastEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// sanitizeString removes control characters and trims whitespace.
func sanitizeString(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
