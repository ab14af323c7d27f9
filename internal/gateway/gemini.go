package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultTemperature = 0.7

// Gemini implements Generator and ImageRenderer on top of the Google
// generative AI API.
type Gemini struct {
	client     *genai.Client
	chatModel  string
	imageModel string
}

// NewGemini creates a gateway using the given API key and model names.
func NewGemini(ctx context.Context, apiKey, chatModel, imageModel string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Gemini{client: client, chatModel: chatModel, imageModel: imageModel}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Generate sends the conversation and tool menu to the chat model and
// returns its next action. Returns (nil, nil) when the model produced no
// candidates; the caller owns that fallback path.
func (g *Gemini) Generate(ctx context.Context, req ChatRequest) (*Reply, error) {
	if len(req.History) == 0 {
		return nil, errors.New("empty history")
	}

	model := g.client.GenerativeModel(g.chatModel)
	model.SetTemperature(temperature(req.Temperature))
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(req.Tools)}}
		if req.ForceTool {
			names := make([]string, len(req.Tools))
			for i, t := range req.Tools {
				names[i] = t.Name
			}
			model.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{
					Mode:                 genai.FunctionCallingAny,
					AllowedFunctionNames: names,
				},
			}
		}
	}

	cs := model.StartChat()
	last := req.History[len(req.History)-1]
	for _, m := range req.History[:len(req.History)-1] {
		cs.History = append(cs.History, toContent(m))
	}

	resp, err := cs.SendMessage(ctx, toParts(last)...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, nil
	}

	var reply Reply
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			if reply.FunctionCall == nil {
				reply.FunctionCall = &FunctionCall{Name: p.Name, Args: p.Args}
			} else {
				// Forced single-tool mode should prevent this; keep the
				// first call and log the rest.
				slog.Warn("gemini returned extra function call", "name", p.Name)
			}
		case genai.Text:
			text.WriteString(string(p))
		}
	}
	reply.Text = text.String()
	if reply.FunctionCall == nil && reply.Text == "" {
		return nil, nil
	}
	return &reply, nil
}

// GenerateJSON asks the chat model for one JSON document matching the schema.
func (g *Gemini) GenerateJSON(ctx context.Context, req StructuredRequest) ([]byte, error) {
	model := g.client.GenerativeModel(g.chatModel)
	model.SetTemperature(temperature(req.Temperature))
	model.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		model.ResponseSchema = toSchema(req.Schema)
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, b := range req.Blobs {
		parts = append(parts, genai.Blob{MIMEType: b.MIME, Data: b.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini structured generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: empty response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("gemini: no text in structured response")
	}
	return []byte(text.String()), nil
}

// NewImageSession starts a chat session against the image model. Each session
// keeps its own history so sequential renders stay consistent.
func (g *Gemini) NewImageSession() ImageSession {
	model := g.client.GenerativeModel(g.imageModel)
	model.SetTemperature(defaultTemperature)
	return &geminiImageSession{chat: model.StartChat()}
}

type geminiImageSession struct {
	chat *genai.ChatSession
}

func (s *geminiImageSession) Render(ctx context.Context, prompt string, refs []Blob) ([]byte, error) {
	parts := []genai.Part{genai.Text(prompt)}
	for _, b := range refs {
		parts = append(parts, genai.Blob{MIMEType: b.MIME, Data: b.Data})
	}

	resp, err := s.chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini image generate: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				return blob.Data, nil
			}
		}
	}
	return nil, errors.New("gemini: no image data in response")
}

func temperature(t float32) float32 {
	if t <= 0 {
		return defaultTemperature
	}
	return t
}

func toContent(m Message) *genai.Content {
	return &genai.Content{Role: m.Role, Parts: toParts(m)}
}

func toParts(m Message) []genai.Part {
	var parts []genai.Part
	if m.Text != "" {
		parts = append(parts, genai.Text(m.Text))
	}
	for _, b := range m.Blobs {
		parts = append(parts, genai.Blob{MIMEType: b.MIME, Data: b.Data})
	}
	if m.FunctionCall != nil {
		parts = append(parts, genai.FunctionCall{Name: m.FunctionCall.Name, Args: m.FunctionCall.Args})
	}
	if m.FunctionResponse != nil {
		parts = append(parts, genai.FunctionResponse{Name: m.FunctionResponse.Name, Response: m.FunctionResponse.Response})
	}
	if len(parts) == 0 {
		parts = append(parts, genai.Text(""))
	}
	return parts
}

func toFunctionDeclarations(tools []ToolSchema) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toSchema(t.Parameters),
		}
	}
	return decls
}

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

func toSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaTypes[s.Type],
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Nullable:    s.Nullable,
	}
	if s.Items != nil {
		out.Items = toSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}
