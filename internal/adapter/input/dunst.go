package input

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/toastack/internal/model"
)

// DunstAdapter fetches toasts from dunstctl history.
type DunstAdapter struct{}

// NewDunstAdapter creates a new DunstAdapter.
func NewDunstAdapter() *DunstAdapter {
	return &DunstAdapter{}
}

// Name returns the adapter identifier.
func (a *DunstAdapter) Name() string {
	return "dunst"
}

// Import fetches toasts from dunstctl history.
func (a *DunstAdapter) Import(ctx context.Context) ([]model.Toast, error) {
	cmd := exec.CommandContext(ctx, "dunstctl", "history")
	output, err := cmd.Output()
	if err != nil {
		return nil, &AdapterError{
			Source:  "dunst",
			Message: "failed to execute dunstctl history",
			Err:     err,
		}
	}

	return ParseDunstHistory(output)
}

// dunstHistory represents the top-level dunstctl history JSON structure.
type dunstHistory struct {
	Type string         `json:"type"`
	Data [][]dunstEntry `json:"data"`
}

// dunstEntry represents a single notification in dunstctl history.
type dunstEntry struct {
	ID        dunstValue `json:"id"`
	AppName   dunstValue `json:"appname"`
	Summary   dunstValue `json:"summary"`
	Body      dunstValue `json:"body"`
	Timestamp dunstValue `json:"timestamp"`
	Urgency   dunstValue `json:"urgency"`
	Category  dunstValue `json:"category"`
}

// dunstValue represents a typed value in dunst JSON.
// dunst uses {"type": "INT", "data": 123} format.
type dunstValue struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// String returns the value as a string.
func (v dunstValue) String() string {
	switch d := v.Data.(type) {
	case string:
		return d
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", d)
	}
}

// Int returns the value as an int.
func (v dunstValue) Int() int {
	return int(v.Int64())
}

// Int64 returns the value as an int64.
func (v dunstValue) Int64() int64 {
	switch d := v.Data.(type) {
	case float64:
		return int64(d)
	case int64:
		return d
	case string:
		i, _ := strconv.ParseInt(d, 10, 64)
		return i
	default:
		return 0
	}
}

// ParseDunstHistory parses dunstctl history JSON output.
func ParseDunstHistory(data []byte) ([]model.Toast, error) {
	var history dunstHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, &AdapterError{
			Source:  "dunst",
			Message: "failed to parse dunstctl history JSON",
			Err:     err,
		}
	}
	if history.Type == "" {
		return nil, &AdapterError{Source: "dunst", Message: "not a dunstctl history document"}
	}

	var toasts []model.Toast

	// dunst uses nested arrays: data is [[entry1, entry2, ...]]
	for _, group := range history.Data {
		for _, entry := range group {
			t := convertDunstEntry(entry)
			if t.Title == "" && t.Message == "" {
				continue
			}
			toasts = append(toasts, t)
		}
	}

	return toasts, nil
}

// convertDunstEntry converts a dunst entry to a Toast. The dunst id is
// kept so repeated imports reconcile instead of duplicating.
func convertDunstEntry(entry dunstEntry) model.Toast {
	urgency := entry.Urgency.Int()
	if urgency < model.UrgencyLow || urgency > model.UrgencyCritical {
		urgency = model.UrgencyNormal
	}

	title := sanitizeString(entry.Summary.String())
	if app := sanitizeString(entry.AppName.String()); app != "" && title == "" {
		title = app
	}

	return model.Toast{
		ID:        "dunst-" + strconv.Itoa(entry.ID.Int()),
		Title:     title,
		Message:   sanitizeString(entry.Body.String()),
		Category:  model.CategoryFromHints(entry.Category.String(), urgency),
		Payload:   map[string]any{"app_name": entry.AppName.String()},
		CreatedAt: time.Unix(convertDunstTimestamp(entry.Timestamp.Int64()), 0),
	}
}

// convertDunstTimestamp converts dunst timestamp to Unix timestamp.
// Dunst timestamps are microseconds since boot.
func convertDunstTimestamp(dunstTimestamp int64) int64 {
	if dunstTimestamp == 0 {
		return time.Now().Unix()
	}

	uptimeData, err := os.ReadFile("/proc/uptime")
	if err != nil {
		// Fallback: assume timestamp is already Unix time if it looks like it
		if dunstTimestamp > 1000000000 {
			return dunstTimestamp
		}
		return time.Now().Unix()
	}

	fields := strings.Fields(string(uptimeData))
	if len(fields) == 0 {
		return time.Now().Unix()
	}
	uptimeFloat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return time.Now().Unix()
	}

	bootTimeMicros := time.Now().UnixMicro() - int64(uptimeFloat*1000000)
	return (bootTimeMicros + dunstTimestamp) / 1000000
}
