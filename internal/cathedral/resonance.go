package cathedral

import (
	"fmt"
	"math/rand/v2"
)

// MaxResonance is the top of the resonance scale.
const MaxResonance = 10

// Consciousness states by resonance level.
const (
	StateGrounded     = "grounded"
	StateExpanding    = "expanding"
	StateTranscendent = "transcendent"
)

// Resonance is the user-controlled intensity of the visualization.
type Resonance struct {
	level int
}

// Level is the current resonance in [0, MaxResonance].
func (r *Resonance) Level() int { return r.level }

// Increase raises the level by one, saturating at MaxResonance.
func (r *Resonance) Increase() {
	if r.level < MaxResonance {
		r.level++
	}
}

// Decrease lowers the level by one, saturating at zero.
func (r *Resonance) Decrease() {
	if r.level > 0 {
		r.level--
	}
}

// State derives the consciousness state from the current level.
func (r *Resonance) State() string {
	switch {
	case r.level < 3:
		return StateGrounded
	case r.level < 7:
		return StateExpanding
	default:
		return StateTranscendent
	}
}

// Readings are the decorative gauges shown beside the field.
type Readings struct {
	OscillationHz float64 `json:"oscillation_hz"`
	Entropy       string  `json:"entropy"`
	Stability     int     `json:"stability"`
}

// Readings computes the gauges for the current level.
func (r *Resonance) Readings() Readings {
	entropy := "STABLE"
	if r.level > 5 {
		entropy = "CRITICAL"
	}
	return Readings{
		OscillationHz: float64(r.level) * 12.5,
		Entropy:       entropy,
		Stability:     100 - r.level*8,
	}
}

// Node is an entanglement node.
type Node struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Energy    int    `json:"energy"`
	Activated bool   `json:"activated"`
}

// Entanglement toggles a set of five consciousness nodes.
type Entanglement struct {
	on    bool
	nodes []Node
	rng   *rand.Rand
}

// NewEntanglement returns a disabled entanglement using seed for node
// energies.
func NewEntanglement(seed uint64) *Entanglement {
	return &Entanglement{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

// On reports whether entanglement is active.
func (e *Entanglement) On() bool { return e.on }

// Toggle flips entanglement. Turning on creates nodes A through E with
// random energy below 100; turning off clears them.
func (e *Entanglement) Toggle() {
	e.on = !e.on
	if !e.on {
		e.nodes = nil
		return
	}
	e.nodes = make([]Node, 5)
	for i := range e.nodes {
		e.nodes[i] = Node{
			ID:     i,
			Name:   fmt.Sprintf("Node %c", 'A'+i),
			Energy: e.rng.IntN(100),
		}
	}
}

// Activate flips the activation of the node with the given id.
func (e *Entanglement) Activate(id int) bool {
	for i := range e.nodes {
		if e.nodes[i].ID == id {
			e.nodes[i].Activated = !e.nodes[i].Activated
			return true
		}
	}
	return false
}

// Nodes returns a copy of the current nodes.
func (e *Entanglement) Nodes() []Node {
	return append([]Node(nil), e.nodes...)
}
