package design

import (
	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// PropertiesSchema describes jewelry.Properties for structured output. Enum
// fields carry their allowed value sets so out-of-set values are rejected at
// schema level instead of being coerced.
func PropertiesSchema() *gateway.Schema {
	enums := jewelry.EnumValues()
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"target_audience": {Type: "string", Enum: enums["target_audience"], Description: "Target audience", Nullable: true},
			"jewelry_type":    {Type: "string", Enum: enums["jewelry_type"], Description: "Type of jewelry", Nullable: true},
			"metal":           {Type: "string", Enum: enums["metal"], Description: "Metal type", Nullable: true},
			"color":           {Type: "string", Enum: enums["color"], Description: "Color tone of the metal", Nullable: true},
			"weight":          {Type: "number", Description: "Weight of the metal in grams", Nullable: true},
			"gemstone":        {Type: "string", Enum: enums["gemstone"], Description: "Type of gemstone", Nullable: true},
			"shape":           {Type: "string", Enum: enums["shape"], Description: "Shape of the gemstone", Nullable: true},
			"size":            {Type: "number", Description: "Size of the gemstone in carats", Nullable: true},
			"style":           {Type: "string", Enum: enums["style"], Description: "Style of the jewelry design", Nullable: true},
			"occasion":        {Type: "string", Enum: enums["occasion"], Description: "Occasion for wearing the jewelry", Nullable: true},
			"inspiration":     {Type: "string", Description: "Inspiring story or background for the design", Nullable: true},
		},
	}
}

// DesignSchema describes a full design record, as carried inside artifacts.
func DesignSchema() *gateway.Schema {
	return &gateway.Schema{
		Type: "object",
		Properties: map[string]*gateway.Schema{
			"id":            {Type: "string", Description: "Unique identifier for the design"},
			"name":          {Type: "string", Description: "Name of the jewelry design"},
			"description":   {Type: "string", Description: "Detailed description of the jewelry design"},
			"properties":    PropertiesSchema(),
			"images":        {Type: "array", Items: &gateway.Schema{Type: "string"}, Description: "Image ids for the design"},
			"three_d_model": {Type: "string", Description: "3D model id if available", Nullable: true},
		},
		Required: []string{"name", "description", "properties"},
	}
}

// ProductSchema is a design plus a price, as carried in recommendations.
func ProductSchema() *gateway.Schema {
	s := DesignSchema()
	s.Properties["price"] = &gateway.Schema{Type: "number", Description: "Price of the product in VND"}
	s.Required = append(s.Required, "id", "price")
	return s
}

// ArtifactSchema describes the artifact union for the terminal tool contract.
func ArtifactSchema() *gateway.Schema {
	return &gateway.Schema{
		Type:     "object",
		Nullable: true,
		Properties: map[string]*gateway.Schema{
			"id":   {Type: "string", Description: "Unique identifier for the artifact"},
			"type": {Type: "string", Enum: []string{"design", "recommendation"}, Description: "Artifact type"},
			"design": func() *gateway.Schema {
				s := DesignSchema()
				s.Nullable = true
				s.Description = "Design object when type is 'design', else null"
				return s
			}(),
			"products": {
				Type:        "array",
				Items:       ProductSchema(),
				Description: "Recommended products when type is 'recommendation', else null",
				Nullable:    true,
			},
		},
		Required: []string{"type"},
	}
}
