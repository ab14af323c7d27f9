package jewelry

import (
	"fmt"
	"strings"
)

// Profile holds customer demographics used to personalize generated designs.
// All fields are optional.
type Profile struct {
	Name          string `json:"name,omitempty"`
	Gender        string `json:"gender,omitempty"`         // male, female, other
	Age           int    `json:"age,omitempty"`
	MaritalStatus string `json:"marital_status,omitempty"` // single, married, engaged
	Segment       string `json:"segment,omitempty"`        // economic, middle, premium, luxury
	Region        string `json:"region,omitempty"`         // north, central, south, foreign
	Nationality   string `json:"nationality,omitempty"`
}

// Summary renders the profile as prompt-ready bullet lines. Returns "" when
// every field is empty.
func (p Profile) Summary() string {
	var b strings.Builder
	add := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}
	add("Name", p.Name)
	add("Gender", p.Gender)
	if p.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	}
	add("Marital Status", p.MaritalStatus)
	add("Customer Segment", p.Segment)
	add("Region", p.Region)
	add("Nationality", p.Nationality)
	return b.String()
}
