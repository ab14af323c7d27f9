// Package artifact defines the UI-facing artifact attached to conversation
// messages (a design or a recommendation set) and the reducer that folds tool
// results into it.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// Kind discriminates the artifact union.
type Kind string

const (
	KindDesign         Kind = "design"
	KindRecommendation Kind = "recommendation"
)

// Artifact is a tagged union: exactly one of Design or Products is set,
// according to Type. It is embedded into each message that carries it, so a
// message is always a complete, independently replayable snapshot.
type Artifact struct {
	ID       string            `json:"id"`
	Type     Kind              `json:"type"`
	Design   *jewelry.Design   `json:"design,omitempty"`
	Products []jewelry.Product `json:"products,omitempty"`
}

// NewDesign wraps a design into a design artifact.
func NewDesign(d jewelry.Design) *Artifact {
	return &Artifact{
		ID:     uuid.NewString(),
		Type:   KindDesign,
		Design: &d,
	}
}

// NewRecommendation wraps products into a recommendation artifact.
func NewRecommendation(products []jewelry.Product) *Artifact {
	return &Artifact{
		ID:       uuid.NewString(),
		Type:     KindRecommendation,
		Products: products,
	}
}

// Clone returns a deep copy. The reducer never mutates its input so callers
// can hold references to prior states safely.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	c := &Artifact{ID: a.ID, Type: a.Type}
	if a.Design != nil {
		d := *a.Design
		d.Images = append([]string(nil), a.Design.Images...)
		d.ReferenceImages = append([]string(nil), a.Design.ReferenceImages...)
		c.Design = &d
	}
	if a.Products != nil {
		c.Products = make([]jewelry.Product, len(a.Products))
		for i, p := range a.Products {
			p.Images = append([]string(nil), p.Images...)
			c.Products[i] = p
		}
	}
	return c
}

// Decode strictly parses an artifact-shaped value (typically a
// map[string]any out of model output). It rejects unknown fields, a type tag
// outside the union, a payload that does not match the tag, and enum property
// values outside their allowed sets.
func Decode(raw any) (*Artifact, error) {
	if raw == nil {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding artifact value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var a Artifact
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return &a, nil
}

// DecodeLenient parses an artifact-shaped value without validation, used by
// the terminal-tool recovery chain. Returns nil when the value is not even
// structurally an artifact.
func DecodeLenient(raw any) *Artifact {
	if raw == nil {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil
	}
	if a.Design == nil && a.Products == nil {
		return nil
	}
	if a.Type == "" {
		if a.Design != nil {
			a.Type = KindDesign
		} else {
			a.Type = KindRecommendation
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return &a
}

func (a *Artifact) validate() error {
	switch a.Type {
	case KindDesign:
		if a.Design == nil {
			return fmt.Errorf("design artifact has no design")
		}
		if a.Products != nil {
			return fmt.Errorf("design artifact carries products")
		}
		if err := a.Design.Properties.Validate(); err != nil {
			return fmt.Errorf("design properties: %w", err)
		}
	case KindRecommendation:
		if len(a.Products) == 0 {
			return fmt.Errorf("recommendation artifact has no products")
		}
		if a.Design != nil {
			return fmt.Errorf("recommendation artifact carries a design")
		}
		for i, p := range a.Products {
			if err := p.Properties.Validate(); err != nil {
				return fmt.Errorf("product %d properties: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown artifact type %q", a.Type)
	}
	return nil
}
