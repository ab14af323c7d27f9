// Package design hosts the specialized generators: concept designs,
// multi-view 2D renders, and (pluggable) 3D models.
package design

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// maxReferenceImages bounds how many customer reference images are attached
// to a single generation call.
const maxReferenceImages = 5

const conceptSystemPrompt = `You are an expert jewelry designer for PNJ Jewelry Corp, specializing in creating personalized jewelry designs.

Your role is to analyze customer requirements, reference images, context, and user information to create detailed jewelry design specifications.

Consider the following when creating designs:
1. User Demographics: Age, gender, marital status, region, and customer segment
2. Design Context: Occasion, style preferences, inspiration, and budget segment
3. Reference Images: Visual elements, patterns, and styles from provided images
4. Cultural Context: Vietnamese jewelry preferences and regional aesthetics
5. PNJ Brand Values: Quality, elegance, and personalization

Output a comprehensive jewelry design with a creative and meaningful name, a
detailed description covering materials, gemstones, and craftsmanship, and
complete properties chosen from the allowed value sets.`

// StructuredGenerator is the slice of the gateway the concept designer needs.
type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, req gateway.StructuredRequest) ([]byte, error)
}

// ConceptRequest carries the inputs for a concept design generation.
type ConceptRequest struct {
	Description     string
	Profile         jewelry.Profile
	Context         string
	ReferenceImages []gateway.Blob
}

// ConceptDesigner generates concept designs via schema-constrained model
// output.
type ConceptDesigner struct {
	gen StructuredGenerator
}

// NewConceptDesigner creates a ConceptDesigner using the given generator.
func NewConceptDesigner(gen StructuredGenerator) *ConceptDesigner {
	return &ConceptDesigner{gen: gen}
}

// Generate produces a design from the customer description and profile.
// Properties outside the allowed enum sets are rejected, not coerced.
func (c *ConceptDesigner) Generate(ctx context.Context, req ConceptRequest) (jewelry.Design, error) {
	refs := req.ReferenceImages
	if len(refs) > maxReferenceImages {
		refs = refs[:maxReferenceImages]
	}
	slog.Debug("generating concept design", "description_len", len(req.Description), "reference_images", len(refs))

	raw, err := c.gen.GenerateJSON(ctx, gateway.StructuredRequest{
		System:      conceptSystemPrompt,
		Prompt:      buildConceptPrompt(req),
		Blobs:       refs,
		Schema:      conceptSchema(),
		Temperature: 0.8,
	})
	if err != nil {
		return jewelry.Design{}, fmt.Errorf("concept generation: %w", err)
	}

	var out struct {
		Name        string             `json:"name"`
		Description string             `json:"description"`
		Properties  jewelry.Properties `json:"properties"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return jewelry.Design{}, fmt.Errorf("parsing concept output: %w", err)
	}
	if out.Name == "" || out.Description == "" {
		return jewelry.Design{}, fmt.Errorf("concept output missing name or description")
	}
	if err := out.Properties.Validate(); err != nil {
		return jewelry.Design{}, fmt.Errorf("concept output: %w", err)
	}

	d := jewelry.NewDesign(out.Name, out.Description, out.Properties)
	slog.Info("generated concept design", "name", d.Name, "type", d.Properties.JewelryType)
	return d, nil
}

func conceptSchema() *gateway.Schema {
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"name":        {Type: "string", Description: "Name of the jewelry design"},
			"description": {Type: "string", Description: "Detailed description of the jewelry design"},
			"properties":  PropertiesSchema(),
		},
		Required: []string{"name", "description", "properties"},
	}
}

func buildConceptPrompt(req ConceptRequest) string {
	var b strings.Builder
	b.WriteString("# Jewelry Design Request\n\n")
	fmt.Fprintf(&b, "## Customer Description\n%s\n\n", req.Description)

	if summary := req.Profile.Summary(); summary != "" {
		fmt.Fprintf(&b, "## Customer Profile\n%s\n", summary)
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "## Additional Context\n%s\n\n", req.Context)
	}

	b.WriteString(`## Instructions
Based on the customer's description, profile, and any reference images provided, create a detailed jewelry design specification.

Ensure the design:
- Matches the customer's preferences and demographics
- Is appropriate for their customer segment (economic, middle, premium, luxury)
- Considers cultural and regional preferences
- Has a meaningful name that resonates with the inspiration or occasion
- Includes comprehensive technical details for production

Generate a complete jewelry design with all applicable properties filled out,
selecting values only from the allowed property options.
`)
	return b.String()
}
