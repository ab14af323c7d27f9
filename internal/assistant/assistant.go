// Package assistant implements the conversational design assistant: a
// bounded tool-calling loop that turns a conversation history into a final
// (message, artifact) pair.
package assistant

import (
	"context"
	"fmt"

	"github.com/neyugncol/jewelry-design-platform-api/internal/artifact"
	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// Result is a tool outcome folded back into the conversation as a
// function-result turn. Every result carries a "success" flag; failed results
// carry an "error" string.
type Result map[string]any

// OK builds a successful result with the given payload fields.
func OK(fields map[string]any) Result {
	r := Result{"success": true}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

// Failf builds a failed result. Tool failures are data, not errors; the loop
// feeds them back to the model and continues.
func Failf(format string, args ...any) Result {
	return Result{"success": false, "error": fmt.Sprintf(format, args...)}
}

// State is the per-run mutable state threaded through tool invocations. It is
// owned by a single Run call and never shared across conversations.
type State struct {
	// Artifact is the current artifact, initialized from the last artifact
	// in history and updated by the reducer after each tool call.
	Artifact *artifact.Artifact

	// Profile is the customer profile for personalization.
	Profile jewelry.Profile

	// RefImages are the reference images from the latest user message.
	RefImages []gateway.Blob
}

// Tool is one assistant capability. Invoke must not panic; the loop guards
// against it anyway and converts panics to failed results.
type Tool interface {
	Name() string
	Description() string
	Schema() *gateway.Schema
	Invoke(ctx context.Context, args map[string]any, st *State) Result
}

// Message is one turn of conversation input to the assistant.
type Message struct {
	Role     string // "user" or "assistant"
	Content  string
	Images   []gateway.Blob
	Artifact *artifact.Artifact
}

// ToolCall records one tool invocation for audit.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Output is the result of one assistant run. It is always usable: even on
// internal failure Message is non-empty and Artifact holds the most recent
// valid artifact.
type Output struct {
	Message    string             `json:"message"`
	Artifact   *artifact.Artifact `json:"artifact"`
	ToolCalls  []ToolCall         `json:"tool_calls"`
	Iterations int                `json:"iterations"`
	Warning    string             `json:"warning,omitempty"`
	Error      string             `json:"error,omitempty"`
}
