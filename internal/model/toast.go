// Package model defines the core data structures for toastack.
package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Category classifies a toast. The set is fixed.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
	CategoryInfo    Category = "info"
	CategoryWarning Category = "warning"
)

// DefaultCategory is applied to toasts that arrive without one.
const DefaultCategory = CategoryInfo

// ValidCategories returns all valid category values.
func ValidCategories() []Category {
	return []Category{CategorySuccess, CategoryError, CategoryInfo, CategoryWarning}
}

// ParseCategory converts a string into a Category.
// Matching is case-insensitive; the second result is false for unknown values.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ValidCategories() {
		if c == valid {
			return c, true
		}
	}
	return "", false
}

// Role is the accessibility role every toast card carries.
const Role = "alert"

// Toast is a single transient notification record.
type Toast struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Message   string    `json:"message" yaml:"message"`
	Category  Category  `json:"category,omitempty" yaml:"category,omitempty"`
	Payload   any       `json:"payload,omitempty" yaml:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}

// Validation errors.
var (
	ErrEmptyID         = errors.New("toast id cannot be empty")
	ErrEmptyContent    = errors.New("toast needs a title or a message")
	ErrInvalidCategory = errors.New("category must be one of success, error, info, warning")
)

// NewID generates a new time-ordered toast identifier.
func NewID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// NewToast creates a Toast with a generated ID.
func NewToast(title, message string, category Category) (*Toast, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	return &Toast{
		ID:        id,
		Title:     title,
		Message:   message,
		Category:  category,
		CreatedAt: time.Now(),
	}, nil
}

// Normalize fills in the fields a host may leave empty: a generated ID,
// the default category and the creation time.
func (t *Toast) Normalize(def Category) error {
	if t.ID == "" {
		id, err := NewID()
		if err != nil {
			return err
		}
		t.ID = id
	}
	if c, ok := ParseCategory(string(t.Category)); ok {
		t.Category = c
	} else {
		t.Category = def
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return nil
}

// Validate checks that the toast has all required fields.
func (t *Toast) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if t.Title == "" && t.Message == "" {
		return ErrEmptyContent
	}
	if t.Category != "" {
		if _, ok := ParseCategory(string(t.Category)); !ok {
			return ErrInvalidCategory
		}
	}
	return nil
}

// EffectiveCategory returns the toast category, or def when none is set.
func (t Toast) EffectiveCategory(def Category) Category {
	if c, ok := ParseCategory(string(t.Category)); ok {
		return c
	}
	return def
}

// SameContent reports whether two toasts render identically.
// The payload is opaque and never compared.
func (t Toast) SameContent(other Toast) bool {
	return t.Title == other.Title &&
		t.Message == other.Message &&
		t.Category == other.Category
}

// ContentHash returns a SHA256 hash of the rendered content, used to give
// id-less feed entries a stable identity across reloads.
func (t Toast) ContentHash() string {
	hash := sha256.Sum256([]byte(t.Title + "\x00" + t.Message + "\x00" + string(t.Category)))
	return hex.EncodeToString(hash[:])
}

// EnsureContentID sets the ID from the content hash if it is empty.
func (t *Toast) EnsureContentID(prefix string) {
	if t.ID == "" {
		t.ID = prefix + t.ContentHash()[:16]
	}
}

// MessageTruncated returns the message collapsed to a single line and
// truncated to maxLen runes, with "..." appended when shortened.
func (t Toast) MessageTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	msg := []rune(strings.Join(strings.Fields(t.Message), " "))
	if len(msg) <= maxLen {
		return string(msg)
	}
	if maxLen <= 3 {
		return string(msg[:maxLen])
	}
	return string(msg[:maxLen-3]) + "..."
}
