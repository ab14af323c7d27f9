package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/neyugncol/jewelry-design-platform-api/internal/catalog"
	"github.com/neyugncol/jewelry-design-platform-api/internal/design"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// MCPDesigner abstracts concept generation for the MCP layer.
type MCPDesigner interface {
	Generate(ctx context.Context, req design.ConceptRequest) (jewelry.Design, error)
}

// MCPRecommender abstracts catalog recommendation for the MCP layer.
type MCPRecommender interface {
	Recommend(ctx context.Context, d jewelry.Design, topK int, minSimilarity float64) ([]jewelry.Product, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Designer    MCPDesigner
	Recommender MCPRecommender
	Catalog     *catalog.Catalog
}

// NewMCPServer creates an MCP server exposing design tools and the product
// catalog resource.
func NewMCPServer(deps MCPDeps) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(
		"jewelryd",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithInstructions("jewelryd — jewelry design assistant: generate design concepts and recommend matching catalog products."),
		mcpserver.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("design_concept",
			mcp.WithDescription("Generate a structured jewelry design concept from a free-text description."),
			mcp.WithString("description", mcp.Description("What the customer wants"), mcp.Required()),
			mcp.WithString("context", mcp.Description("Additional context, e.g. occasion or budget notes")),
		),
		mcpDesignConcept(deps),
	)

	s.AddTool(
		mcp.NewTool("recommend_products",
			mcp.WithDescription("Recommend catalog products similar to a described design."),
			mcp.WithString("description", mcp.Description("Description of the design to match against"), mcp.Required()),
			mcp.WithNumber("top_k", mcp.Description("Maximum number of recommendations (default 5, max 5)")),
			mcp.WithNumber("min_similarity", mcp.Description("Minimum similarity score 0..1 (default 0.3)")),
		),
		mcpRecommendProducts(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"catalog://products",
			"Product Catalog",
			mcp.WithResourceDescription("All catalog products as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProducts(deps),
	)

	return s
}

func mcpDesignConcept(deps MCPDeps) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description, err := req.RequireString("description")
		if err != nil {
			return mcpError("description is required"), nil
		}

		d, err := deps.Designer.Generate(ctx, design.ConceptRequest{
			Description: description,
			Context:     req.GetString("context", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("concept generation failed: %v", err)), nil
		}

		b, err := json.Marshal(d)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal design: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecommendProducts(deps MCPDeps) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description, err := req.RequireString("description")
		if err != nil {
			return mcpError("description is required"), nil
		}

		topK := req.GetInt("top_k", 0)
		minSimilarity := req.GetFloat("min_similarity", 0)

		products, err := deps.Recommender.Recommend(ctx, jewelry.Design{Description: description}, topK, minSimilarity)
		if err != nil {
			return mcpError(fmt.Sprintf("recommendation failed: %v", err)), nil
		}

		b, err := json.Marshal(products)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal products: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceProducts(deps MCPDeps) mcpserver.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Catalog.Products())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal products: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
