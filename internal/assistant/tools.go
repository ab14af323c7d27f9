package assistant

import (
	"context"
	"fmt"

	"github.com/neyugncol/jewelry-design-platform-api/internal/artifact"
	"github.com/neyugncol/jewelry-design-platform-api/internal/design"
	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// ConceptDesigner generates a concept design from a description.
type ConceptDesigner interface {
	Generate(ctx context.Context, req design.ConceptRequest) (jewelry.Design, error)
}

// ViewRenderer renders the product views of a design.
type ViewRenderer interface {
	RenderViews(ctx context.Context, d jewelry.Design, refs []gateway.Blob, styleContext string) ([]design.View, error)
}

// ImageSaver persists generated image bytes and returns a stored image id.
type ImageSaver interface {
	Save(ctx context.Context, filename, mime string, data []byte) (string, error)
}

// Recommender finds catalog products similar to a design.
type Recommender interface {
	Recommend(ctx context.Context, d jewelry.Design, topK int, minSimilarity float64) ([]jewelry.Product, error)
}

// NewRegistryWith wires the standard tool set into a fresh registry.
func NewRegistryWith(designer ConceptDesigner, renderer ViewRenderer, saver ImageSaver, models design.ModelGenerator, rec Recommender) *Registry {
	reg := NewRegistry()
	reg.Register(&ConceptTool{designer: designer})
	reg.Register(&ImagesTool{renderer: renderer, saver: saver})
	reg.Register(&ThreeDTool{models: models})
	reg.Register(&RecommendTool{rec: rec})
	reg.RegisterTerminal(&RespondTool{})
	return reg
}

// ConceptTool generates a new concept design from the customer's request.
type ConceptTool struct {
	designer ConceptDesigner
}

func (t *ConceptTool) Name() string { return artifact.ToolConceptDesign }

func (t *ConceptTool) Description() string {
	return "Generate a new jewelry concept design from the customer's description. Replaces the current design."
}

func (t *ConceptTool) Schema() *gateway.Schema {
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"description": {Type: "string", Description: "What the customer wants, in their own words plus any clarified details"},
			"context":     {Type: "string", Description: "Extra context such as occasion, budget, or story behind the piece"},
		},
		Required: []string{"description"},
	}
}

func (t *ConceptTool) Invoke(ctx context.Context, args map[string]any, st *State) Result {
	description := stringArg(args, "description")
	if description == "" {
		return Failf("missing description")
	}
	d, err := t.designer.Generate(ctx, design.ConceptRequest{
		Description:     description,
		Profile:         st.Profile,
		Context:         stringArg(args, "context"),
		ReferenceImages: st.RefImages,
	})
	if err != nil {
		return Failf("concept design failed: %v", err)
	}
	return OK(map[string]any{"design": d})
}

// ImagesTool renders the three product views for the current design and
// stores them.
type ImagesTool struct {
	renderer ViewRenderer
	saver    ImageSaver
}

func (t *ImagesTool) Name() string { return artifact.Tool2DImages }

func (t *ImagesTool) Description() string {
	return "Render front, side, and top product images for the current design. Requires an existing design."
}

func (t *ImagesTool) Schema() *gateway.Schema {
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"style_context": {Type: "string", Description: "Extra styling instructions for the renders"},
		},
	}
}

func (t *ImagesTool) Invoke(ctx context.Context, args map[string]any, st *State) Result {
	if st.Artifact == nil || st.Artifact.Type != artifact.KindDesign || st.Artifact.Design == nil {
		return Failf("no current design to render")
	}
	d := *st.Artifact.Design

	views, err := t.renderer.RenderViews(ctx, d, st.RefImages, stringArg(args, "style_context"))
	if err != nil {
		return Failf("image generation failed: %v", err)
	}

	ids := make([]string, 0, len(views))
	for _, v := range views {
		id, err := t.saver.Save(ctx, fmt.Sprintf("%s_%s.png", d.ID, v.Type), v.MIME, v.Data)
		if err != nil {
			return Failf("storing %s view failed: %v", v.Type, err)
		}
		ids = append(ids, id)
	}
	return OK(map[string]any{"images": ids})
}

// ThreeDTool generates a 3D model for the current design.
type ThreeDTool struct {
	models design.ModelGenerator
}

func (t *ThreeDTool) Name() string { return artifact.Tool3DModel }

func (t *ThreeDTool) Description() string {
	return "Generate a 3D model for the current design. Requires an existing design, ideally with rendered images."
}

func (t *ThreeDTool) Schema() *gateway.Schema {
	return &gateway.Schema{Type: "object", Properties: map[string]*gateway.Schema{}}
}

func (t *ThreeDTool) Invoke(ctx context.Context, _ map[string]any, st *State) Result {
	if st.Artifact == nil || st.Artifact.Type != artifact.KindDesign || st.Artifact.Design == nil {
		return Failf("no current design to model")
	}
	model, err := t.models.GenerateModel(ctx, *st.Artifact.Design)
	if err != nil {
		return Failf("3D model generation failed: %v", err)
	}
	return OK(map[string]any{"model": model})
}

// RecommendTool finds catalog products similar to the current design.
type RecommendTool struct {
	rec Recommender
}

func (t *RecommendTool) Name() string { return artifact.ToolRecommend }

func (t *RecommendTool) Description() string {
	return "Recommend catalog products similar to the current design. Requires an existing design."
}

func (t *RecommendTool) Schema() *gateway.Schema {
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"top_k":          {Type: "integer", Description: "Maximum number of products to return, up to 5"},
			"min_similarity": {Type: "number", Description: "Minimum similarity threshold from 0.0 to 1.0"},
		},
	}
}

func (t *RecommendTool) Invoke(ctx context.Context, args map[string]any, st *State) Result {
	if st.Artifact == nil || st.Artifact.Type != artifact.KindDesign || st.Artifact.Design == nil {
		return Failf("no current design to recommend from")
	}
	products, err := t.rec.Recommend(ctx, *st.Artifact.Design, intArg(args, "top_k"), floatArg(args, "min_similarity"))
	if err != nil {
		return Failf("recommendation failed: %v", err)
	}
	return OK(map[string]any{"products": products})
}

// RespondTool is the terminal tool. The loop parses its arguments directly;
// Invoke exists only to satisfy the Tool interface.
type RespondTool struct{}

func (t *RespondTool) Name() string { return artifact.ToolRespond }

func (t *RespondTool) Description() string {
	return "Send the final reply for this turn. Call this exactly once, as your last action, with your conversational message and the current artifact."
}

func (t *RespondTool) Schema() *gateway.Schema {
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"message":  {Type: "string", Description: "Conversational reply to the customer"},
			"artifact": design.ArtifactSchema(),
		},
		Required: []string{"message"},
	}
}

func (t *RespondTool) Invoke(context.Context, map[string]any, *State) Result {
	return Failf("respond_to_user is handled by the conversation loop")
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
