package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// Recommendation limits. The model is asked to rank the whole catalog, so
// the result set stays small regardless of catalog size.
const (
	DefaultTopK          = 5
	MaxTopK              = 5
	DefaultMinSimilarity = 0.3
)

// StructuredGenerator is the slice of the model gateway the recommender
// needs.
type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, req gateway.StructuredRequest) ([]byte, error)
}

// Recommender scores catalog products against a design with the chat model
// and returns the closest matches.
type Recommender struct {
	gen StructuredGenerator
	cat *Catalog
}

// NewRecommender creates a Recommender over the given catalog.
func NewRecommender(gen StructuredGenerator, cat *Catalog) *Recommender {
	return &Recommender{gen: gen, cat: cat}
}

type recommendation struct {
	ProductID       string  `json:"product_id"`
	SimilarityScore float64 `json:"similarity_score"`
	Reasoning       string  `json:"reasoning"`
}

// Recommend returns up to topK products at least minSimilarity similar to
// the design, most similar first. Out-of-range arguments are clamped to the
// defaults. An empty catalog yields an empty result, not an error.
func (r *Recommender) Recommend(ctx context.Context, d jewelry.Design, topK int, minSimilarity float64) ([]jewelry.Product, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	if minSimilarity > 1 {
		minSimilarity = 1
	}

	products := r.cat.Products()
	if len(products) == 0 {
		slog.Warn("recommendation requested against empty catalog")
		return []jewelry.Product{}, nil
	}
	slog.Info("recommending products", "design", d.Name, "top_k", topK, "min_similarity", minSimilarity, "catalog_size", len(products))

	raw, err := r.gen.GenerateJSON(ctx, gateway.StructuredRequest{
		Prompt:      buildRecommendationPrompt(d, products, topK, minSimilarity),
		Schema:      recommendationSchema(),
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("recommendation generation: %w", err)
	}

	var out struct {
		Recommendations []recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing recommendation output: %w", err)
	}

	// Keep the model's ordering; it already ranks by similarity.
	matched := make([]jewelry.Product, 0, topK)
	for _, rec := range out.Recommendations {
		if rec.SimilarityScore < minSimilarity {
			continue
		}
		p, ok := r.cat.Product(rec.ProductID)
		if !ok {
			slog.Warn("model recommended unknown product", "product_id", rec.ProductID)
			continue
		}
		matched = append(matched, p)
		if len(matched) == topK {
			break
		}
	}
	slog.Info("recommendation complete", "matched", len(matched))
	return matched, nil
}

func recommendationSchema() *gateway.Schema {
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"recommendations": {
				Type:        "array",
				Description: "Product recommendations sorted by similarity, highest first",
				Items: &gateway.Schema{
					Type: "object",
					Properties: map[string]*gateway.Schema{
						"product_id":       {Type: "string", Description: "ID of the recommended product"},
						"similarity_score": {Type: "number", Description: "Similarity score from 0.0 to 1.0"},
						"reasoning":        {Type: "string", Description: "Why this product is similar"},
					},
					Required: []string{"product_id", "similarity_score", "reasoning"},
				},
			},
		},
		Required: []string{"recommendations"},
	}
}

func buildRecommendationPrompt(d jewelry.Design, products []jewelry.Product, topK int, minSimilarity float64) string {
	var b strings.Builder
	b.WriteString("You are an expert jewelry consultant analyzing product similarity.\n\n")
	fmt.Fprintf(&b, "# TASK\nAnalyze the provided jewelry design and recommend the top %d most similar products from our catalog.\n\n", topK)
	fmt.Fprintf(&b, "# INPUT DESIGN\n%s\n", d.Describe())

	b.WriteString("\n# AVAILABLE PRODUCTS\n")
	for i, p := range products {
		fmt.Fprintf(&b, "\n## Product %d\n%s", i+1, p.Describe())
	}

	fmt.Fprintf(&b, `
# ANALYSIS REQUIREMENTS
1. Compare the design with EVERY product in the catalog
2. Consider multiple factors for similarity: target audience, jewelry type, metal, color tone, gemstone and its shape, weight and size, style, occasion, overall aesthetic and inspiration, and price range compatibility
3. Calculate a similarity score (0.0 to 1.0) for each product:
   - 1.0 = Perfect match in most aspects
   - 0.7-0.9 = Very similar, minor differences
   - 0.5-0.6 = Moderately similar, some key differences
   - 0.3-0.4 = Somewhat similar, different in several aspects
   - 0.0-0.2 = Very different, few similarities
4. Only include products with similarity >= %.2f
5. Return the top %d most similar products, sorted by similarity score (highest first)
6. For each recommendation, explain which attributes match and any notable differences

# OUTPUT FORMAT
Return a JSON object with recommendations sorted by similarity score (descending).
If no products meet the minimum similarity threshold, return an empty recommendations list.
`, minSimilarity, topK)
	return b.String()
}
