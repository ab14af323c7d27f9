package gateway

import (
	"testing"

	genai "github.com/google/generative-ai-go/genai"
)

func TestTemperature_DefaultsWhenUnset(t *testing.T) {
	if got := temperature(0); got != defaultTemperature {
		t.Errorf("temperature(0) = %v, want %v", got, defaultTemperature)
	}
	if got := temperature(0.3); got != 0.3 {
		t.Errorf("temperature(0.3) = %v", got)
	}
}

func TestToParts_TextAndBlobs(t *testing.T) {
	parts := toParts(Message{
		Role: RoleUser,
		Text: "hello",
		Blobs: []Blob{
			{MIME: "image/png", Data: []byte("png")},
		},
	})

	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if text, ok := parts[0].(genai.Text); !ok || string(text) != "hello" {
		t.Errorf("parts[0] = %#v", parts[0])
	}
	if blob, ok := parts[1].(genai.Blob); !ok || blob.MIMEType != "image/png" {
		t.Errorf("parts[1] = %#v", parts[1])
	}
}

func TestToParts_FunctionCallAndResponse(t *testing.T) {
	parts := toParts(Message{
		Role:         RoleModel,
		FunctionCall: &FunctionCall{Name: "generate_concept_design", Args: map[string]any{"description": "a ring"}},
	})
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if fc, ok := parts[0].(genai.FunctionCall); !ok || fc.Name != "generate_concept_design" {
		t.Errorf("parts[0] = %#v", parts[0])
	}

	parts = toParts(Message{
		Role:             RoleUser,
		FunctionResponse: &FunctionResponse{Name: "generate_concept_design", Response: map[string]any{"success": true}},
	})
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if fr, ok := parts[0].(genai.FunctionResponse); !ok || fr.Response["success"] != true {
		t.Errorf("parts[0] = %#v", parts[0])
	}
}

func TestToParts_EmptyMessageYieldsEmptyText(t *testing.T) {
	parts := toParts(Message{Role: RoleUser})
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if _, ok := parts[0].(genai.Text); !ok {
		t.Errorf("parts[0] = %#v", parts[0])
	}
}

func TestToSchema_Recursive(t *testing.T) {
	s := toSchema(&Schema{
		Type:        "object",
		Description: "a design",
		Required:    []string{"name"},
		Properties: map[string]*Schema{
			"name": {Type: "string"},
			"tags": {
				Type:  "array",
				Items: &Schema{Type: "string", Enum: []string{"gold", "silver"}},
			},
			"artifact": {Type: "object", Nullable: true},
		},
	})

	if s.Type != genai.TypeObject {
		t.Errorf("type = %v", s.Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "name" {
		t.Errorf("required = %v", s.Required)
	}
	if s.Properties["name"].Type != genai.TypeString {
		t.Errorf("name type = %v", s.Properties["name"].Type)
	}
	tags := s.Properties["tags"]
	if tags.Type != genai.TypeArray || tags.Items == nil || len(tags.Items.Enum) != 2 {
		t.Errorf("tags = %+v", tags)
	}
	if !s.Properties["artifact"].Nullable {
		t.Error("nullable not carried over")
	}
}

func TestToSchema_Nil(t *testing.T) {
	if toSchema(nil) != nil {
		t.Error("toSchema(nil) should be nil")
	}
}

func TestToFunctionDeclarations(t *testing.T) {
	decls := toFunctionDeclarations([]ToolSchema{
		{Name: "respond_to_user", Description: "finish the turn", Parameters: &Schema{Type: "object"}},
	})
	if len(decls) != 1 {
		t.Fatalf("got %d declarations, want 1", len(decls))
	}
	if decls[0].Name != "respond_to_user" || decls[0].Parameters.Type != genai.TypeObject {
		t.Errorf("decl = %+v", decls[0])
	}
}

func TestNewGemini_RequiresAPIKey(t *testing.T) {
	if _, err := NewGemini(t.Context(), "", "chat", "image"); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
