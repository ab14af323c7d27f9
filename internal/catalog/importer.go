package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

const importSystemPrompt = `You extract jewelry product records from raw catalog text.

For each distinct product in the text, produce one record with its name,
description, price in VND, and whatever properties the text states. Pick
property values only from the allowed sets; leave a property empty when the
text does not state it. Never invent products that are not in the text.`

// Importer extracts product records from supplier catalog PDFs and stores
// them in the catalog.
type Importer struct {
	gen StructuredGenerator
	cat *Catalog
}

// NewImporter creates an Importer writing into cat.
func NewImporter(gen StructuredGenerator, cat *Catalog) *Importer {
	return &Importer{gen: gen, cat: cat}
}

// ImportPDF parses the PDF at path, extracts product records from its text,
// and stores each valid product. Returns the number of products stored.
// Invalid records are logged and skipped.
func (im *Importer) ImportPDF(ctx context.Context, path string) (int, error) {
	text, err := extractText(path)
	if err != nil {
		return 0, err
	}
	if text == "" {
		return 0, fmt.Errorf("no text extracted from %s", path)
	}
	slog.Info("extracting products from catalog PDF", "path", path, "text_len", len(text))

	raw, err := im.gen.GenerateJSON(ctx, gateway.StructuredRequest{
		System:      importSystemPrompt,
		Prompt:      "Extract all jewelry products from the following catalog text.\n\n" + text,
		Schema:      importSchema(),
		Temperature: 0.2,
	})
	if err != nil {
		return 0, fmt.Errorf("product extraction: %w", err)
	}

	var out struct {
		Products []jewelry.Product `json:"products"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("parsing extracted products: %w", err)
	}

	stored := 0
	for _, p := range out.Products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		if err := im.cat.Store(p); err != nil {
			slog.Warn("skipping extracted product", "name", p.Name, "error", err)
			continue
		}
		stored++
	}
	slog.Info("catalog import complete", "path", path, "extracted", len(out.Products), "stored", stored)
	return stored, nil
}

func extractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

func importSchema() *gateway.Schema {
	enums := jewelry.EnumValues()
	properties := &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"target_audience": {Type: "string", Enum: enums["target_audience"], Nullable: true},
			"jewelry_type":    {Type: "string", Enum: enums["jewelry_type"], Nullable: true},
			"metal":           {Type: "string", Enum: enums["metal"], Nullable: true},
			"color":           {Type: "string", Enum: enums["color"], Nullable: true},
			"weight":          {Type: "number", Nullable: true},
			"gemstone":        {Type: "string", Enum: enums["gemstone"], Nullable: true},
			"shape":           {Type: "string", Enum: enums["shape"], Nullable: true},
			"size":            {Type: "number", Nullable: true},
			"style":           {Type: "string", Enum: enums["style"], Nullable: true},
			"occasion":        {Type: "string", Enum: enums["occasion"], Nullable: true},
		},
	}
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"products": {
				Type: "array",
				Items: &gateway.Schema{
					Type: "object",
					Properties: map[string]*gateway.Schema{
						"name":        {Type: "string", Description: "Product name"},
						"description": {Type: "string", Description: "Product description"},
						"price":       {Type: "number", Description: "Price in VND"},
						"properties":  properties,
					},
					Required: []string{"name", "description", "price"},
				},
			},
		},
		Required: []string{"products"},
	}
}
