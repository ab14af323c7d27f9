package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/neyugncol/jewelry-design-platform-api/internal/artifact"
	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// DefaultMaxIterations caps gateway calls per turn.
const DefaultMaxIterations = 10

// Warning values reported on degraded but successful runs.
const (
	WarningMaxIterations = "max_iterations_reached"
	WarningEmptyResponse = "empty_response"
)

const (
	fallbackMessage = "I'm sorry, I'm having trouble responding right now. Please try again."

	apologyMessage = "I'm sorry, something went wrong while preparing my response. Here is the latest state of your design."

	maxIterationsMessage = "I wasn't able to finish everything in this turn. Here is where things stand so far; send another message and I will continue from here."
)

const systemPrompt = `You are a personal jewelry design consultant for PNJ Jewelry Corp.

You help customers create personalized jewelry designs through conversation. You can generate concept designs, render product images, create 3D models, and recommend similar products from the catalog.

Guidelines:
- Understand what the customer wants before generating; ask clarifying questions through your reply when their request is vague
- Use generate_concept_design when the customer describes a piece they want
- Use generate_2d_images to visualize the current design when the customer wants to see it
- Use generate_3d_model only after images exist and the customer asks for a 3D model
- Use recommend_products when the customer wants similar items they can buy
- Always finish the turn by calling respond_to_user with your conversational reply and the current artifact
- Be warm and concise; write replies in the customer's language`

// Option configures an Assistant.
type Option func(*Assistant)

// WithMaxIterations overrides the per-turn gateway call cap.
func WithMaxIterations(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithSystemPrompt replaces the built-in system prompt.
func WithSystemPrompt(s string) Option {
	return func(a *Assistant) { a.system = s }
}

// Assistant drives the tool-calling loop. One Assistant may serve many
// conversations concurrently; all per-run state lives in Run's locals.
type Assistant struct {
	gw            gateway.Generator
	reg           *Registry
	system        string
	maxIterations int
}

// New creates an Assistant over the given gateway and tool registry.
func New(gw gateway.Generator, reg *Registry, opts ...Option) *Assistant {
	a := &Assistant{
		gw:            gw,
		reg:           reg,
		system:        systemPrompt,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes one conversation turn. It never returns an error: every
// failure mode degrades to a usable Output carrying a message and the most
// recent valid artifact.
func (a *Assistant) Run(ctx context.Context, msgs []Message, profile jewelry.Profile) *Output {
	out := &Output{ToolCalls: []ToolCall{}}

	st := &State{
		Artifact:  latestArtifact(msgs),
		Profile:   profile,
		RefImages: latestUserImages(msgs),
	}
	// Recovery baseline: the artifact the caller supplied, untouched by this
	// run.
	initial := st.Artifact

	history := toHistory(msgs)
	if len(history) == 0 {
		out.Message = fallbackMessage
		out.Error = "empty conversation"
		return out
	}

	system := a.system
	if summary := profile.Summary(); summary != "" {
		system += "\n\n# Customer Profile\n" + summary
	}

	for out.Iterations < a.maxIterations {
		out.Iterations++

		reply, err := a.gw.Generate(ctx, gateway.ChatRequest{
			System:    system,
			History:   history,
			Tools:     a.reg.Schemas(),
			ForceTool: true,
		})
		if err != nil {
			slog.Error("assistant gateway call failed", "iteration", out.Iterations, "error", err)
			out.Error = err.Error()
			out.Message = fallbackMessage
			out.Artifact = st.Artifact
			return out
		}
		if reply == nil || (reply.FunctionCall == nil && reply.Text == "") {
			slog.Warn("assistant got empty model response", "iteration", out.Iterations)
			out.Warning = WarningEmptyResponse
			out.Message = fallbackMessage
			out.Artifact = st.Artifact
			return out
		}
		if reply.FunctionCall == nil {
			// Forced tool choice should prevent plain text; when the gateway
			// cannot guarantee it, the text is the final answer.
			out.Message = reply.Text
			out.Artifact = st.Artifact
			return out
		}

		call := reply.FunctionCall
		out.ToolCalls = append(out.ToolCalls, ToolCall{Name: call.Name, Arguments: call.Args})
		slog.Debug("assistant tool call", "iteration", out.Iterations, "tool", call.Name)

		tool, known := a.reg.Lookup(call.Name)
		if known && tool == a.reg.Terminal() {
			a.finish(call.Args, st, initial, out)
			return out
		}

		var result Result
		if !known {
			slog.Warn("model called unknown tool", "tool", call.Name)
			result = Failf("unknown tool: %s", call.Name)
		} else {
			result = safeInvoke(ctx, tool, call.Args, st)
		}

		st.Artifact = artifact.Reduce(call.Name, result, st.Artifact)

		history = append(history,
			gateway.Message{Role: gateway.RoleModel, FunctionCall: call},
			gateway.Message{Role: gateway.RoleUser, FunctionResponse: &gateway.FunctionResponse{
				Name:     call.Name,
				Response: result,
			}},
		)
	}

	slog.Warn("assistant hit iteration cap", "iterations", out.Iterations)
	out.Warning = WarningMaxIterations
	out.Message = maxIterationsMessage
	out.Artifact = st.Artifact
	return out
}

// finish resolves the terminal tool call into the run's output. Malformed
// arguments degrade through a recovery chain instead of failing the run:
// the raw artifact blob if it is artifact-shaped, else the running artifact,
// else the caller-supplied one.
func (a *Assistant) finish(args map[string]any, st *State, initial *artifact.Artifact, out *Output) {
	message, _ := args["message"].(string)

	art, err := artifact.Decode(args["artifact"])
	if err == nil && message != "" {
		if art != nil {
			st.Artifact = art
		}
		out.Message = message
		out.Artifact = st.Artifact
		return
	}

	if err != nil {
		slog.Warn("terminal tool arguments failed validation", "error", err)
		out.Error = fmt.Sprintf("invalid respond_to_user arguments: %v", err)
	} else {
		slog.Warn("terminal tool call missing message")
		out.Error = "invalid respond_to_user arguments: missing message"
	}

	recovered := artifact.DecodeLenient(args["artifact"])
	if recovered == nil {
		recovered = st.Artifact
	}
	if recovered == nil {
		recovered = initial
	}
	if message == "" {
		message = apologyMessage
	}
	out.Message = message
	out.Artifact = recovered
}

func safeInvoke(ctx context.Context, tool Tool, args map[string]any, st *State) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool panicked", "tool", tool.Name(), "panic", r)
			result = Failf("tool %s failed: %v", tool.Name(), r)
		}
	}()
	result = tool.Invoke(ctx, args, st)
	if result == nil {
		result = Failf("tool %s returned no result", tool.Name())
	}
	return result
}

// latestArtifact returns a copy of the last artifact in history, so the run
// never mutates the caller's messages.
func latestArtifact(msgs []Message) *artifact.Artifact {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Artifact != nil {
			return msgs[i].Artifact.Clone()
		}
	}
	return nil
}

// latestUserImages returns the reference images attached to the most recent
// user message.
func latestUserImages(msgs []Message) []gateway.Blob {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "assistant" {
			continue
		}
		if len(msgs[i].Images) > 0 {
			return msgs[i].Images
		}
		return nil
	}
	return nil
}

// toHistory converts conversation messages to gateway format. Artifacts are
// embedded into the message text so the model sees the state it is updating.
func toHistory(msgs []Message) []gateway.Message {
	out := make([]gateway.Message, 0, len(msgs))
	for _, m := range msgs {
		role := gateway.RoleUser
		if m.Role == "assistant" {
			role = gateway.RoleModel
		}
		text := m.Content
		if m.Artifact != nil {
			if b, err := json.Marshal(m.Artifact); err == nil {
				text += "\n\n[Current artifact]\n" + string(b)
			}
		}
		out = append(out, gateway.Message{Role: role, Text: text, Blobs: m.Images})
	}
	return out
}
