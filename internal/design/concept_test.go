package design

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

type stubGenerator struct {
	lastReq gateway.StructuredRequest
	out     []byte
	err     error
}

func (s *stubGenerator) GenerateJSON(_ context.Context, req gateway.StructuredRequest) ([]byte, error) {
	s.lastReq = req
	return s.out, s.err
}

func TestConceptGenerate(t *testing.T) {
	gen := &stubGenerator{out: []byte(`{
		"name": "Mekong Dawn",
		"description": "A rose gold ring with a round ruby center stone.",
		"properties": {"jewelry_type": "ring", "metal": "gold", "gemstone": "ruby", "shape": "round"}
	}`)}
	c := NewConceptDesigner(gen)

	d, err := c.Generate(context.Background(), ConceptRequest{
		Description: "engagement ring with a ruby",
		Profile:     jewelry.Profile{Name: "Linh", Segment: "premium"},
		Context:     "proposal next month",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if d.ID == "" {
		t.Error("expected generated design id")
	}
	if d.Name != "Mekong Dawn" || d.Properties.Gemstone != "ruby" {
		t.Errorf("design = %+v", d)
	}

	prompt := gen.lastReq.Prompt
	for _, want := range []string{"engagement ring with a ruby", "Linh", "proposal next month"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if gen.lastReq.Schema == nil || gen.lastReq.Schema.Properties["properties"] == nil {
		t.Error("expected properties schema on request")
	}
}

func TestConceptGenerate_CapsReferenceImages(t *testing.T) {
	gen := &stubGenerator{out: []byte(`{"name": "N", "description": "D", "properties": {}}`)}
	c := NewConceptDesigner(gen)

	refs := make([]gateway.Blob, 8)
	for i := range refs {
		refs[i] = gateway.Blob{MIME: "image/jpeg", Data: []byte{byte(i)}}
	}
	if _, err := c.Generate(context.Background(), ConceptRequest{Description: "x", ReferenceImages: refs}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := len(gen.lastReq.Blobs); got != maxReferenceImages {
		t.Errorf("attached %d reference images, want %d", got, maxReferenceImages)
	}
}

func TestConceptGenerate_RejectsInvalidEnum(t *testing.T) {
	gen := &stubGenerator{out: []byte(`{"name": "N", "description": "D", "properties": {"metal": "adamantium"}}`)}
	c := NewConceptDesigner(gen)

	if _, err := c.Generate(context.Background(), ConceptRequest{Description: "x"}); err == nil {
		t.Fatal("expected validation error for unknown metal")
	}
}

func TestConceptGenerate_GatewayError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	c := NewConceptDesigner(&stubGenerator{err: wantErr})

	_, err := c.Generate(context.Background(), ConceptRequest{Description: "x"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Generate() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestConceptGenerate_MissingFields(t *testing.T) {
	c := NewConceptDesigner(&stubGenerator{out: []byte(`{"name": "", "description": "D", "properties": {}}`)})
	if _, err := c.Generate(context.Background(), ConceptRequest{Description: "x"}); err == nil {
		t.Fatal("expected error for empty name")
	}
}
