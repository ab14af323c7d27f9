package artifact

import (
	"reflect"
	"testing"

	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

func designArtifact(name string, images ...string) *Artifact {
	d := jewelry.NewDesign(name, "a test design", jewelry.Properties{JewelryType: jewelry.TypeRing})
	if images != nil {
		d.Images = images
	}
	return NewDesign(d)
}

func TestReduce_ConceptDesignReplacesArtifact(t *testing.T) {
	cur := designArtifact("Old")
	result := map[string]any{
		"success": true,
		"design": map[string]any{
			"name":        "Aurora Ring",
			"description": "rose gold band",
			"properties":  map[string]any{"jewelry_type": "ring", "metal": "18k_gold"},
		},
	}

	next := Reduce(ToolConceptDesign, result, cur)
	if next == cur {
		t.Fatal("expected a new artifact, got the old one")
	}
	if next.Type != KindDesign {
		t.Fatalf("Type = %q, want %q", next.Type, KindDesign)
	}
	if next.Design.Name != "Aurora Ring" {
		t.Errorf("Design.Name = %q, want %q", next.Design.Name, "Aurora Ring")
	}
	if next.Design.Properties.Metal != jewelry.MetalGold18K {
		t.Errorf("Metal = %q, want 18k_gold", next.Design.Properties.Metal)
	}
}

func TestReduce_RecommendReplacesArtifact(t *testing.T) {
	cur := designArtifact("Old")
	result := map[string]any{
		"success": true,
		"products": []any{
			map[string]any{"id": "p1", "name": "Ring A", "price": 100.0},
			map[string]any{"id": "p2", "name": "Ring B", "price": 200.0},
		},
	}

	next := Reduce(ToolRecommend, result, cur)
	if next.Type != KindRecommendation {
		t.Fatalf("Type = %q, want %q", next.Type, KindRecommendation)
	}
	if len(next.Products) != 2 || next.Products[0].ID != "p1" {
		t.Errorf("Products = %+v, want p1,p2", next.Products)
	}
}

func TestReduce_RecommendEmptyProductsIsNoOp(t *testing.T) {
	cur := designArtifact("Keep")
	next := Reduce(ToolRecommend, map[string]any{"success": true, "products": []any{}}, cur)
	if next != cur {
		t.Error("empty product list should leave the artifact unchanged")
	}
}

func TestReduce_2DImagesUpdatesDesignInPlaceKeepingName(t *testing.T) {
	cur := designArtifact("X")
	result := map[string]any{"success": true, "images": []any{"a", "b", "c"}}

	next := Reduce(Tool2DImages, result, cur)
	if next == cur {
		t.Fatal("expected a copy, got the same pointer")
	}
	if !reflect.DeepEqual(next.Design.Images, []string{"a", "b", "c"}) {
		t.Errorf("Images = %v, want [a b c]", next.Design.Images)
	}
	if next.Design.Name != "X" {
		t.Errorf("Name = %q, want X", next.Design.Name)
	}
	if len(cur.Design.Images) != 0 {
		t.Errorf("input artifact was mutated: %v", cur.Design.Images)
	}
}

func TestReduce_2DImagesWithoutDesignIsNoOp(t *testing.T) {
	result := map[string]any{"success": true, "images": []any{"a"}}

	if got := Reduce(Tool2DImages, result, nil); got != nil {
		t.Errorf("nil artifact: got %+v, want nil", got)
	}

	rec := NewRecommendation([]jewelry.Product{{ID: "p1", Name: "Ring"}})
	if got := Reduce(Tool2DImages, result, rec); got != rec {
		t.Error("recommendation artifact should pass through unchanged")
	}
}

func TestReduce_3DModelAttachesToDesign(t *testing.T) {
	cur := designArtifact("X", "img1")
	next := Reduce(Tool3DModel, map[string]any{"success": true, "model": "m-42"}, cur)
	if next.Design.ThreeDModel != "m-42" {
		t.Errorf("ThreeDModel = %q, want m-42", next.Design.ThreeDModel)
	}
	if cur.Design.ThreeDModel != "" {
		t.Error("input artifact was mutated")
	}
}

func TestReduce_3DModelMissingReferenceIsNoOp(t *testing.T) {
	cur := designArtifact("X")
	if got := Reduce(Tool3DModel, map[string]any{"success": true}, cur); got != cur {
		t.Error("missing model reference should leave the artifact unchanged")
	}
}

func TestReduce_FailedResultIsIdempotent(t *testing.T) {
	cur := designArtifact("Keep")
	failed := map[string]any{"success": false, "error": "boom"}
	for _, name := range []string{ToolConceptDesign, ToolRecommend, Tool2DImages, Tool3DModel, "weird_tool"} {
		if got := Reduce(name, failed, cur); got != cur {
			t.Errorf("Reduce(%q, failed, cur) changed the artifact", name)
		}
	}
	if got := Reduce(ToolConceptDesign, failed, nil); got != nil {
		t.Errorf("Reduce on nil artifact = %+v, want nil", got)
	}
}

func TestReduce_UnknownToolPassesThrough(t *testing.T) {
	cur := designArtifact("Keep")
	if got := Reduce("estimate_price", map[string]any{"success": true, "price": 5.0}, cur); got != cur {
		t.Error("unknown tool should not touch the artifact")
	}
}
