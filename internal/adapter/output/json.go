package output

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastack/internal/model"
)

// frameDoc is the serialized shape of a frame.
type frameDoc struct {
	Mode   string   `json:"mode" yaml:"mode"`
	Extent float64  `json:"extent" yaml:"extent"`
	Toasts []rowDoc `json:"toasts" yaml:"toasts"`
}

type rowDoc struct {
	Index     int            `json:"index" yaml:"index"`
	ID        string         `json:"id" yaml:"id"`
	Title     string         `json:"title" yaml:"title"`
	Message   string         `json:"message,omitempty" yaml:"message,omitempty"`
	Category  model.Category `json:"category" yaml:"category"`
	Role      string         `json:"role" yaml:"role"`
	Phase     string         `json:"phase,omitempty" yaml:"phase,omitempty"`
	Height    float64        `json:"height" yaml:"height"`
	OffsetY   float64        `json:"offset_y" yaml:"offset_y"`
	Opacity   float64        `json:"opacity" yaml:"opacity"`
	Scale     float64        `json:"scale" yaml:"scale"`
	ZIndex    int            `json:"z_index" yaml:"z_index"`
	CreatedAt time.Time      `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}

func newFrameDoc(frame Frame) frameDoc {
	doc := frameDoc{
		Mode:   frame.Mode.String(),
		Extent: frame.Extent,
		Toasts: make([]rowDoc, len(frame.Rows)),
	}
	for i, r := range frame.Rows {
		doc.Toasts[i] = rowDoc{
			Index:     r.Placement.Index,
			ID:        r.Placement.Key,
			Title:     r.Toast.Title,
			Message:   r.Toast.Message,
			Category:  r.Toast.EffectiveCategory(model.DefaultCategory),
			Role:      model.Role,
			Phase:     r.Phase,
			Height:    r.Height,
			OffsetY:   r.Placement.OffsetY,
			Opacity:   r.Placement.Opacity,
			Scale:     r.Placement.Scale,
			ZIndex:    r.Placement.ZIndex,
			CreatedAt: r.Toast.CreatedAt,
		}
	}
	return doc
}

// JSONFormatter formats frames as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the frame as an indented JSON document.
func (f *JSONFormatter) Format(w io.Writer, frame Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newFrameDoc(frame))
}

// YAMLFormatter formats frames as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes the frame as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, frame Frame) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(newFrameDoc(frame)); err != nil {
		return err
	}
	return encoder.Close()
}
