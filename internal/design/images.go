package design

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// View is one rendered product image of a design.
type View struct {
	Type   string
	MIME   string
	Data   []byte
	Prompt string
}

type viewConfig struct {
	kind        string
	name        string
	description string
}

var views = []viewConfig{
	{"front", "Front View", "showcasing the primary design elements, face-on perspective, centered composition"},
	{"side", "Side View", "displaying the profile and depth, 90-degree angle from the front, showing thickness and dimension"},
	{"top", "Top View", "revealing the overhead perspective, bird's eye view, showing the full layout and proportions"},
}

// Renderer produces the three product views of a design. Views are rendered
// sequentially inside one image session so the model keeps the design
// consistent across angles.
type Renderer struct {
	images gateway.ImageRenderer
}

// NewRenderer creates a Renderer backed by the given image gateway.
func NewRenderer(images gateway.ImageRenderer) *Renderer {
	return &Renderer{images: images}
}

// RenderViews generates the front, side, and top views for a design.
// Reference images are attached to the first render only; later views rely on
// the session history. Any failed view fails the whole run, no partial sets.
func (r *Renderer) RenderViews(ctx context.Context, d jewelry.Design, refs []gateway.Blob, styleContext string) ([]View, error) {
	if len(refs) > maxReferenceImages {
		refs = refs[:maxReferenceImages]
	}
	slog.Info("rendering design views", "design", d.Name, "reference_images", len(refs))

	session := r.images.NewImageSession()
	base := buildBaseDescription(d, styleContext)

	out := make([]View, 0, len(views))
	for i, v := range views {
		prompt := buildViewPrompt(v, base, rendered(out))

		var sessionRefs []gateway.Blob
		if i == 0 {
			sessionRefs = refs
		}
		data, err := session.Render(ctx, prompt, sessionRefs)
		if err != nil {
			return nil, fmt.Errorf("rendering %s view: %w", v.kind, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("rendering %s view: no image data", v.kind)
		}

		out = append(out, View{Type: v.kind, MIME: "image/png", Data: data, Prompt: prompt})
		slog.Debug("rendered view", "view", v.kind, "bytes", len(data))
	}
	return out, nil
}

func rendered(views []View) []string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Type
	}
	return names
}

func buildBaseDescription(d jewelry.Design, styleContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Jewelry Design: %s\n\n%s\n", d.Name, d.Description)

	p := d.Properties
	if p.JewelryType != "" {
		fmt.Fprintf(&b, "\nType: %s", p.JewelryType)
	}
	if p.Metal != "" {
		fmt.Fprintf(&b, "\nMetal: %s", p.Metal)
	}
	if p.Gemstone != "" {
		fmt.Fprintf(&b, "\nGemstone: %s", p.Gemstone)
	}
	if p.Shape != "" {
		fmt.Fprintf(&b, "\nGemstone Shape: %s", p.Shape)
	}
	if p.Style != "" {
		fmt.Fprintf(&b, "\nStyle: %s", p.Style)
	}
	if p.Color != "" {
		fmt.Fprintf(&b, "\nColor: %s", p.Color)
	}
	if p.Occasion != "" {
		fmt.Fprintf(&b, "\nOccasion: %s", p.Occasion)
	}
	if p.Inspiration != "" {
		fmt.Fprintf(&b, "\nInspiration: %s", p.Inspiration)
	}
	if styleContext != "" {
		fmt.Fprintf(&b, "\n\nAdditional Style: %s", styleContext)
	}
	return b.String()
}

func buildViewPrompt(v viewConfig, base string, previous []string) string {
	var b strings.Builder
	if len(previous) > 0 {
		fmt.Fprintf(&b, "Generate the %s of the jewelry design, maintaining perfect consistency with the previously generated %s view(s).",
			v.name, strings.Join(previous, ", "))
	} else {
		fmt.Fprintf(&b, "Generate a high-quality product photograph of the %s for this jewelry design.", v.name)
	}

	fmt.Fprintf(&b, "\n\n%s\n", base)

	fmt.Fprintf(&b, `
View Requirements:
- Perspective: %s
- Ensure all design elements are clearly visible from this angle
- Show accurate proportions, dimensions, and material details
- Display gemstones, engravings, and decorative elements clearly

Photography Requirements:
- Professional product photography quality
- Clean white or subtle gradient background
- Optimal lighting to showcase metal luster and gemstone brilliance
- Sharp focus on all jewelry details
- Realistic materials and textures
- Suitable for 3D modeling reference and product showcase`, v.description)

	if v.kind == "side" || v.kind == "top" {
		fmt.Fprintf(&b, "\n\nImportant: This %s view will be used as reference for 3D model generation. Ensure depth, thickness, and structural details are accurately represented and clearly visible.", v.kind)
	}
	return b.String()
}
