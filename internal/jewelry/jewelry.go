// Package jewelry defines the domain vocabulary: property enums, designs,
// catalog products, and customer profiles.
package jewelry

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TargetAudience identifies who a piece is designed for.
type TargetAudience string

const (
	AudienceMen          TargetAudience = "men"
	AudienceWomen        TargetAudience = "women"
	AudienceUnisex       TargetAudience = "unisex"
	AudienceCouple       TargetAudience = "couple"
	AudiencePersonalized TargetAudience = "personalized"
)

// Type is the kind of jewelry item.
type Type string

const (
	TypeRing     Type = "ring"
	TypeBracelet Type = "bracelet"
	TypeBangle   Type = "bangle"
	TypeNecklace Type = "necklace"
	TypeEarring  Type = "earring"
	TypeAnklet   Type = "anklet"
)

// Metal is the base metal of a piece.
type Metal string

const (
	MetalGold24K  Metal = "24k_gold"
	MetalGold22K  Metal = "22k_gold"
	MetalGold18K  Metal = "18k_gold"
	MetalGold14K  Metal = "14k_gold"
	MetalGold10K  Metal = "10k_gold"
	MetalSilver   Metal = "silver"
	MetalPlatinum Metal = "platinum"
)

// ColorTone is the color tone of the metal.
type ColorTone string

const (
	ToneWhite  ColorTone = "white"
	ToneYellow ColorTone = "yellow"
	ToneRose   ColorTone = "rose"
)

// Gemstone is the stone set in a piece.
type Gemstone string

const (
	GemDiamond       Gemstone = "diamond"
	GemSapphire      Gemstone = "sapphire"
	GemEmerald       Gemstone = "emerald"
	GemAmethyst      Gemstone = "amethyst"
	GemRuby          Gemstone = "ruby"
	GemCitrine       Gemstone = "citrine"
	GemTourmaline    Gemstone = "tourmaline"
	GemTopaz         Gemstone = "topaz"
	GemGarnet        Gemstone = "garnet"
	GemPeridot       Gemstone = "peridot"
	GemSpinel        Gemstone = "spinel"
	GemCubicZirconia Gemstone = "cubic_zirconia"
	GemAquamarine    Gemstone = "aquamarine"
	GemOpal          Gemstone = "opal"
	GemMoonstone     Gemstone = "moonstone"
	GemPearl         Gemstone = "pearl"
)

// Shape is the cut shape of the gemstone.
type Shape string

const (
	ShapeRound    Shape = "round"
	ShapeOval     Shape = "oval"
	ShapeMarquise Shape = "marquise"
	ShapePear     Shape = "pear"
	ShapeHeart    Shape = "heart"
	ShapeRadiant  Shape = "radiant"
	ShapeEmerald  Shape = "emerald"
	ShapeCushion  Shape = "cushion"
	ShapePrincess Shape = "princess"
)

// Style is the overall design style.
type Style string

const (
	StyleClassic     Style = "classic"
	StyleModern      Style = "modern"
	StyleVintage     Style = "vintage"
	StyleMinimalist  Style = "minimalist"
	StyleLuxury      Style = "luxury"
	StylePersonality Style = "personality"
	StyleNatural     Style = "natural"
)

// Occasion is the wearing occasion a piece is intended for.
type Occasion string

const (
	OccasionWedding    Occasion = "wedding"
	OccasionEngagement Occasion = "engagement"
	OccasionCasual     Occasion = "casual"
	OccasionFormal     Occasion = "formal"
	OccasionParty      Occasion = "party"
	OccasionDailyWear  Occasion = "daily_wear"
)

var (
	audienceValues = []string{"men", "women", "unisex", "couple", "personalized"}
	typeValues     = []string{"ring", "bracelet", "bangle", "necklace", "earring", "anklet"}
	metalValues    = []string{"24k_gold", "22k_gold", "18k_gold", "14k_gold", "10k_gold", "silver", "platinum"}
	toneValues     = []string{"white", "yellow", "rose"}
	gemstoneValues = []string{
		"diamond", "sapphire", "emerald", "amethyst", "ruby", "citrine", "tourmaline",
		"topaz", "garnet", "peridot", "spinel", "cubic_zirconia", "aquamarine", "opal",
		"moonstone", "pearl",
	}
	shapeValues    = []string{"round", "oval", "marquise", "pear", "heart", "radiant", "emerald", "cushion", "princess"}
	styleValues    = []string{"classic", "modern", "vintage", "minimalist", "luxury", "personality", "natural"}
	occasionValues = []string{"wedding", "engagement", "casual", "formal", "party", "daily_wear"}
)

// EnumValues returns the allowed values per enum field name, used to build
// structured-output schemas and validation.
func EnumValues() map[string][]string {
	return map[string][]string{
		"target_audience": audienceValues,
		"jewelry_type":    typeValues,
		"metal":           metalValues,
		"color":           toneValues,
		"gemstone":        gemstoneValues,
		"shape":           shapeValues,
		"style":           styleValues,
		"occasion":        occasionValues,
	}
}

// Properties is a flat record of optional design attributes. All fields are
// independently optional; combination validity is the generator's concern.
type Properties struct {
	TargetAudience TargetAudience `json:"target_audience,omitempty"`
	JewelryType    Type           `json:"jewelry_type,omitempty"`
	Metal          Metal          `json:"metal,omitempty"`
	Color          ColorTone      `json:"color,omitempty"`
	Weight         float64        `json:"weight,omitempty"`
	Gemstone       Gemstone       `json:"gemstone,omitempty"`
	Shape          Shape          `json:"shape,omitempty"`
	Size           float64        `json:"size,omitempty"`
	Style          Style          `json:"style,omitempty"`
	Occasion       Occasion       `json:"occasion,omitempty"`
	Inspiration    string         `json:"inspiration,omitempty"`
}

// Validate rejects enum fields holding values outside their allowed sets.
// Empty fields are always valid.
func (p Properties) Validate() error {
	checks := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"target_audience", string(p.TargetAudience), audienceValues},
		{"jewelry_type", string(p.JewelryType), typeValues},
		{"metal", string(p.Metal), metalValues},
		{"color", string(p.Color), toneValues},
		{"gemstone", string(p.Gemstone), gemstoneValues},
		{"shape", string(p.Shape), shapeValues},
		{"style", string(p.Style), styleValues},
		{"occasion", string(p.Occasion), occasionValues},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if !contains(c.allowed, c.value) {
			return fmt.Errorf("invalid %s %q (allowed: %s)", c.field, c.value, strings.Join(c.allowed, ", "))
		}
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Design is a concept design produced by the assistant. Images and ThreeDModel
// hold asset ids referencing stored images/models, not raw data.
type Design struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Properties      Properties `json:"properties"`
	Images          []string   `json:"images"`
	ThreeDModel     string     `json:"three_d_model,omitempty"`
	ReferenceImages []string   `json:"reference_images,omitempty"`
}

// NewDesign returns a Design with a fresh id.
func NewDesign(name, description string, props Properties) Design {
	return Design{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Properties:  props,
		Images:      []string{},
	}
}

// Product is a catalog item: a design shape plus a price.
type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Properties  Properties `json:"properties"`
	Images      []string   `json:"images"`
	ThreeDModel string     `json:"three_d_model,omitempty"`
	Price       float64    `json:"price"`
}

// Describe renders a design as indented plain text for model prompts.
func (d Design) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", d.Name)
	fmt.Fprintf(&b, "Description: %s\n", d.Description)
	b.WriteString("Properties:\n")
	b.WriteString(d.Properties.describe())
	return b.String()
}

// Describe renders a product as indented plain text for model prompts.
func (p Product) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s (ID: %s)\n", p.Name, p.ID)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Price: %.0f VND\n", p.Price)
	b.WriteString("Properties:\n")
	b.WriteString(p.Properties.describe())
	return b.String()
}

func (p Properties) describe() string {
	var b strings.Builder
	add := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  - %s: %s\n", label, value)
		}
	}
	add("Target Audience", string(p.TargetAudience))
	add("Type", string(p.JewelryType))
	add("Metal", string(p.Metal))
	add("Color Tone", string(p.Color))
	if p.Weight > 0 {
		fmt.Fprintf(&b, "  - Weight: %.1fg\n", p.Weight)
	}
	add("Gemstone", string(p.Gemstone))
	add("Gemstone Shape", string(p.Shape))
	if p.Size > 0 {
		fmt.Fprintf(&b, "  - Gemstone Size: %.2f carats\n", p.Size)
	}
	add("Style", string(p.Style))
	add("Occasion", string(p.Occasion))
	add("Inspiration", p.Inspiration)
	return b.String()
}
