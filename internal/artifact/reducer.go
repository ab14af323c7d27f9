package artifact

import (
	"encoding/json"

	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// Tool names the reducer reacts to. The assistant registers its tools under
// these names; every other name passes through unchanged.
const (
	ToolConceptDesign = "generate_concept_design"
	ToolRecommend     = "recommend_products"
	Tool2DImages      = "generate_2d_images"
	Tool3DModel       = "generate_3d_model"
	ToolRespond       = "respond_to_user"
)

// Reduce computes the next artifact from a tool result and the current one.
// It is pure: the input artifact is never mutated, failed or irrelevant
// results return it unchanged.
//
// Image and 3D-model results only attach to a Design artifact; when the
// current artifact is nil or a Recommendation they are ignored.
func Reduce(toolName string, result map[string]any, cur *Artifact) *Artifact {
	if !succeeded(result) {
		return cur
	}

	switch toolName {
	case ToolConceptDesign:
		var r struct {
			Design jewelry.Design `json:"design"`
		}
		if !decodeInto(result, &r) || r.Design.Name == "" {
			return cur
		}
		return NewDesign(r.Design)

	case ToolRecommend:
		var r struct {
			Products []jewelry.Product `json:"products"`
		}
		if !decodeInto(result, &r) || len(r.Products) == 0 {
			return cur
		}
		return NewRecommendation(r.Products)

	case Tool2DImages:
		if cur == nil || cur.Type != KindDesign || cur.Design == nil {
			return cur
		}
		var r struct {
			Images []string `json:"images"`
		}
		if !decodeInto(result, &r) || r.Images == nil {
			return cur
		}
		next := cur.Clone()
		next.Design.Images = r.Images
		return next

	case Tool3DModel:
		if cur == nil || cur.Type != KindDesign || cur.Design == nil {
			return cur
		}
		var r struct {
			Model string `json:"model"`
		}
		if !decodeInto(result, &r) || r.Model == "" {
			return cur
		}
		next := cur.Clone()
		next.Design.ThreeDModel = r.Model
		return next
	}

	return cur
}

func succeeded(result map[string]any) bool {
	ok, _ := result["success"].(bool)
	return ok
}

func decodeInto(src, dst any) bool {
	b, err := json.Marshal(src)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}
