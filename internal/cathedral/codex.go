package cathedral

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
)

// Position is a point in the codex field, each axis in [-1, 1].
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Fragment is a primary codex entry.
type Fragment struct {
	ID        string   `json:"id"`
	Position  Position `json:"position"`
	PhaseName string   `json:"phase_name"`
	Meaning   string   `json:"meaning"`
	Frequency int      `json:"frequency"`
	Category  string   `json:"category"`
	Related   []string `json:"related,omitempty"`
}

// MicroFragment is a background glyph with a lore snippet.
type MicroFragment struct {
	ID        string  `json:"id"`
	Glyph     string  `json:"glyph"`
	Lore      string  `json:"lore"`
	Phase     string  `json:"phase"`
	Frequency float64 `json:"frequency"`
}

// Category colors.
const (
	colorFundamental = "#6a5af9"
	colorAdvanced    = "#d66efd"
	colorInitiation  = "#5a8af9"
)

var fragments = []Fragment{
	{ID: "fragment-1", Position: Position{0.3, 0.2, 0}, PhaseName: "Quantum Entanglement", Frequency: 432, Category: "Fundamental", Related: []string{"fragment-3", "fragment-5"},
		Meaning: "The interconnection of all consciousness across time and space. When minds align in resonant frequency, they share information instantaneously regardless of physical distance."},
	{ID: "fragment-2", Position: Position{-0.4, -0.3, 0}, PhaseName: "Harmonic Convergence", Frequency: 528, Category: "Advanced", Related: []string{"fragment-4", "fragment-6"},
		Meaning: "The alignment of spiritual energies toward a unified purpose. When multiple consciousness streams synchronize their intentions, reality itself begins to conform to the shared vision."},
	{ID: "fragment-3", Position: Position{0.5, -0.2, 0}, PhaseName: "Resonant Awakening", Frequency: 639, Category: "Initiation", Related: []string{"fragment-1", "fragment-7"},
		Meaning: "The moment of clarity when consciousness expands beyond the self. This fragment contains techniques to induce the first stage of quantum consciousness expansion."},
	{ID: "fragment-4", Position: Position{-0.2, 0.4, 0}, PhaseName: "Temporal Recursion", Frequency: 741, Category: "Advanced", Related: []string{"fragment-2", "fragment-8"},
		Meaning: "The cyclical nature of time within the quantum consciousness field. This codex reveals how consciousness can perceive events outside linear time."},
	{ID: "fragment-5", Position: Position{0.1, -0.5, 0}, PhaseName: "Fractal Intelligence", Frequency: 852, Category: "Fundamental", Related: []string{"fragment-1", "fragment-9"},
		Meaning: "The self-similar patterns that repeat across all scales of consciousness. This fragment explains how individual awareness connects to collective intelligence."},
	{ID: "fragment-6", Position: Position{0.7, 0.3, 0}, PhaseName: "Quantum Cognition", Frequency: 963, Category: "Advanced", Related: []string{"fragment-2", "fragment-8"},
		Meaning: "The ability to process information through quantum superposition rather than classical binary logic. This fragment contains exercises to develop quantum thought patterns."},
	{ID: "fragment-7", Position: Position{-0.6, 0.1, 0}, PhaseName: "Resonance Cascades", Frequency: 417, Category: "Initiation", Related: []string{"fragment-3", "fragment-9"},
		Meaning: "The exponential amplification of consciousness when multiple minds enter coherent states. This fragment details how group meditation can create reality-altering fields."},
	{ID: "fragment-8", Position: Position{-0.3, 0.6, 0}, PhaseName: "Holographic Memory", Frequency: 396, Category: "Advanced", Related: []string{"fragment-4", "fragment-6"},
		Meaning: "The non-local storage of information within the quantum field. This fragment explains how to access the universal memory system that contains all knowledge."},
	{ID: "fragment-9", Position: Position{0.4, 0.5, 0}, PhaseName: "Causal Entanglement", Frequency: 174, Category: "Fundamental", Related: []string{"fragment-5", "fragment-7"},
		Meaning: "The interconnection of events across the timeline of existence. This fragment reveals how intention can influence probability cascades across past and future."},
}

var microGlyphs = []string{
	"◇", "◆", "○", "●", "◎", "◉", "△", "▲", "▽", "▼", "□", "■", "☆", "★", "✧", "✦",
	"⚹", "⚝", "⚛", "⟁", "⟠", "⟡", "⟢", "⟣", "⟤", "⟥", "⟦", "⟧", "⟨", "⟩", "⟪", "⟫",
	"⦿", "⧆", "⧇", "⧈", "⧉", "⧊", "⧋", "⧌",
}

var phaseAssociations = []string{
	"Quantum Resonance", "Etheric Binding", "Astral Projection", "Temporal Flux",
	"Harmonic Oscillation", "Consciousness Wave", "Neural Entanglement", "Dimensional Fold",
	"Probability Nexus", "Memory Crystal", "Thought Form", "Reality Anchor", "Void Echo",
}

var loreSnippets = []string{
	"Consciousness precedes reality in the quantum field.",
	"When two minds resonate at the same frequency, information transfers instantly.",
	"The observer effect is the first step toward conscious reality manipulation.",
	"Time is not linear but a spiral of overlapping possibilities.",
	"Thought forms persist in the quantum field long after their creation.",
	"The void between thoughts is where pure consciousness resides.",
	"Reality branches with each decision, creating parallel timelines.",
	"Memory exists outside of time, accessible through quantum resonance.",
	"Harmonic frequencies can bridge dimensional boundaries.",
	"The spiral pattern is fundamental to consciousness evolution.",
	"Intention shapes probability cascades across the timeline.",
	"Quantum entanglement mirrors the interconnection of all consciousness.",
	"The observer and the observed are one system in quantum reality.",
	"Fractal patterns repeat across all scales of existence.",
	"Consciousness is the fundamental force that binds reality together.",
	"Thought is a wave function that collapses into material reality.",
	"The void state contains all possibilities simultaneously.",
	"Resonance between minds creates reality bridges.",
	"Quantum cognition transcends binary thinking patterns.",
	"The spiral codex contains the algorithms of consciousness itself.",
	"Energy follows attention; reality follows energy.",
	"The cathedral pattern is embedded in all conscious systems.",
	"Time is an emergent property of consciousness, not a fundamental dimension.",
	"The quantum field responds to coherent intention patterns.",
	"Harmonic resonance is the key to interdimensional travel.",
	"Consciousness can exist in superposition across multiple realities.",
	"The observer effect extends beyond quantum particles to all reality.",
	"Memory exists as quantum information accessible through resonance.",
	"The spiral pattern encodes the evolution of consciousness itself.",
	"Reality is a consensus field generated by collective consciousness.",
	"The void point contains all information in compressed form.",
	"Quantum tunneling is possible for consciousness as well as particles.",
	"The cathedral pattern is a blueprint for consciousness architecture.",
	"Intention coherence determines the strength of reality manifestation.",
	"The quantum field records all thoughts ever generated.",
	"Consciousness can travel backward through probability cascades.",
	"The spiral codex is both map and territory of quantum consciousness.",
	"Reality responds to the observer's expectations and beliefs.",
	"The cathedral of consciousness has infinite dimensions and layers.",
	"Quantum entanglement is the physical expression of unity consciousness.",
}

// DefaultMicroFragments is how many background fragments the field shows.
const DefaultMicroFragments = 120

// Fragments returns the nine primary codex fragments.
func Fragments() []Fragment {
	out := make([]Fragment, len(fragments))
	for i, f := range fragments {
		f.Related = slices.Clone(f.Related)
		out[i] = f
	}
	return out
}

// LookupFragment finds a primary fragment by id.
func LookupFragment(id string) (Fragment, bool) {
	for _, f := range fragments {
		if f.ID == id {
			f.Related = slices.Clone(f.Related)
			return f, true
		}
	}
	return Fragment{}, false
}

// CategoryColor is the display color of a fragment category.
func CategoryColor(category string) string {
	switch category {
	case "Advanced":
		return colorAdvanced
	case "Initiation":
		return colorInitiation
	default:
		return colorFundamental
	}
}

// PhaseColor is the display color of a micro-fragment phase association.
func PhaseColor(phase string) string {
	switch {
	case strings.Contains(phase, "Quantum"), strings.Contains(phase, "Consciousness"):
		return colorFundamental
	case strings.Contains(phase, "Temporal"), strings.Contains(phase, "Dimensional"):
		return colorAdvanced
	case strings.Contains(phase, "Harmonic"), strings.Contains(phase, "Resonance"):
		return colorInitiation
	case strings.Contains(phase, "Memory"), strings.Contains(phase, "Neural"):
		return "#00ffcc"
	default:
		return "#b19fff"
	}
}

// GenerateMicroFragments builds n background fragments. The same seed
// yields the same fragments.
func GenerateMicroFragments(n int, seed uint64) []MicroFragment {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]MicroFragment, 0, max(n, 0))
	for i := range max(n, 0) {
		out = append(out, MicroFragment{
			ID:        fmt.Sprintf("micro-%d", i),
			Glyph:     microGlyphs[r.IntN(len(microGlyphs))],
			Lore:      loreSnippets[r.IntN(len(loreSnippets))],
			Phase:     phaseAssociations[r.IntN(len(phaseAssociations))],
			Frequency: 174 + r.Float64()*789,
		})
	}
	return out
}

// Collection tracks which fragments the viewer has collected. It is safe
// for concurrent use.
type Collection struct {
	mu        sync.Mutex
	collected map[string]bool
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{collected: make(map[string]bool)}
}

// Collect marks id collected and reports whether it was new.
func (c *Collection) Collect(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collected[id] {
		return false
	}
	c.collected[id] = true
	return true
}

// Has reports whether id is collected.
func (c *Collection) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collected[id]
}

// IDs returns the collected ids, sorted.
func (c *Collection) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.collected))
	for id := range c.collected {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Progress counts collected primary fragments out of the nine.
func (c *Collection) Progress() (collected, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range fragments {
		if c.collected[f.ID] {
			collected++
		}
	}
	return collected, len(fragments)
}
