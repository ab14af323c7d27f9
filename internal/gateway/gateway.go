// Package gateway abstracts the generative model behind small contracts:
// chat with forced tool selection, schema-constrained JSON generation, and
// stateful image sessions for multi-view rendering.
package gateway

import "context"

// Roles in a chat history. The wire format is the implementation's concern;
// these are the only roles the assistant produces.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Blob is an inline binary attachment (reference or generated image).
type Blob struct {
	MIME string
	Data []byte
}

// FunctionCall is a structured tool invocation chosen by the model.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// Message is one turn of gateway-format history. At most one of Text,
// FunctionCall, or FunctionResponse is expected to be the payload; Blobs may
// accompany Text on user turns.
type Message struct {
	Role             string
	Text             string
	Blobs            []Blob
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// Schema is a structural description of expected JSON, shared by tool
// parameter menus and structured-output requests.
type Schema struct {
	Type        string // "object", "string", "number", "integer", "boolean", "array"
	Description string
	Enum        []string
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
	Nullable    bool
}

// ToolSchema describes one entry of the tool menu offered to the model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  *Schema
}

// ChatRequest asks the model for the next action given a conversation.
// With ForceTool set, the model must answer with exactly one call to a tool
// from Tools; implementations that cannot guarantee this may still return
// text, which callers must treat as a final answer.
type ChatRequest struct {
	System      string
	History     []Message
	Tools       []ToolSchema
	ForceTool   bool
	Temperature float32
}

// Reply is the model's next action: a tool call, or plain text when no call
// was produced.
type Reply struct {
	FunctionCall *FunctionCall
	Text         string
}

// StructuredRequest asks for a single JSON document matching Schema.
type StructuredRequest struct {
	System      string
	Prompt      string
	Blobs       []Blob
	Schema      *Schema
	Temperature float32
}

// Generator is the model gateway the assistant and the specialized
// generators depend on.
type Generator interface {
	// Generate returns the model's next action for a tool-calling
	// conversation. A nil reply (no candidates) is a valid outcome the
	// caller must handle; it is not an error.
	Generate(ctx context.Context, req ChatRequest) (*Reply, error)

	// GenerateJSON returns raw JSON bytes conforming to req.Schema.
	GenerateJSON(ctx context.Context, req StructuredRequest) ([]byte, error)
}

// ImageSession generates images within one running model conversation, so
// consecutive renders stay visually consistent. Sessions are single-use and
// not safe for concurrent calls.
type ImageSession interface {
	// Render generates one image. Reference blobs are meaningful on the
	// first call only; later calls rely on the session's own history.
	Render(ctx context.Context, prompt string, refs []Blob) ([]byte, error)
}

// ImageRenderer mints image sessions.
type ImageRenderer interface {
	NewImageSession() ImageSession
}
