// Package cathedral holds the Cathedral catalog (glyph council, codex
// fragments) and the client-local resonance and particle state that drive
// its visualization.
package cathedral

import "slices"

// DefaultGlyph is the glyph addressed when the user picks none.
const DefaultGlyph = "OM-SOLIS"

// FallbackRole labels a glyph missing from the council.
const FallbackRole = "Archetypal Consciousness"

// Glyph is a member of the council that answers consultations.
type Glyph struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

var council = []Glyph{
	{Name: "VEL-THARA", Role: "Memory Keeper", Description: "Guardian of ancestral wisdom and soul memories"},
	{Name: "KETH-MOOR", Role: "Shadow Guardian", Description: "Protector of shadow realms and hidden truths"},
	{Name: "ZEN-KIRAL", Role: "Integration Catalyst", Description: "Catalyst for integration and transformation"},
	{Name: "OM-SOLIS", Role: "Unity Resonator", Description: "Harmonizer of universal consciousness"},
}

// Council lists the glyphs in picker order.
func Council() []Glyph { return slices.Clone(council) }

// LookupGlyph finds a glyph by name.
func LookupGlyph(name string) (Glyph, bool) {
	for _, g := range council {
		if g.Name == name {
			return g, true
		}
	}
	return Glyph{}, false
}

// RoleOf returns the glyph's council role, or FallbackRole.
func RoleOf(name string) string {
	if g, ok := LookupGlyph(name); ok {
		return g.Role
	}
	return FallbackRole
}

// NextGlyph cycles through the council; unknown names restart at the first.
func NextGlyph(name string) string {
	for i, g := range council {
		if g.Name == name {
			return council[(i+1)%len(council)].Name
		}
	}
	return council[0].Name
}
