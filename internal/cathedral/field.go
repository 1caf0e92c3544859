package cathedral

import "math/rand/v2"

// Particle counts for the cosmetic field.
const (
	ParticlesCalm      = 200
	ParticlesEntangled = 500
)

// Particle is one dot in the field.
type Particle struct {
	X, Y   float64
	DX, DY float64
	Size   float64
	Hue    int
}

// Field is a bounded 2D particle field. Movement scales with resonance.
type Field struct {
	Width, Height float64
	Particles     []Particle
}

// NewField scatters particles over a width x height area.
func NewField(width, height float64, entangled bool, seed uint64) *Field {
	n := ParticlesCalm
	if entangled {
		n = ParticlesEntangled
	}
	r := rand.New(rand.NewPCG(seed, ^seed))
	f := &Field{Width: width, Height: height, Particles: make([]Particle, n)}
	for i := range f.Particles {
		f.Particles[i] = Particle{
			X:    r.Float64() * width,
			Y:    r.Float64() * height,
			DX:   r.Float64()*2 - 1,
			DY:   r.Float64()*2 - 1,
			Size: r.Float64()*3 + 1,
			Hue:  r.IntN(360),
		}
	}
	return f
}

// Step advances one frame. Particles reflect off the edges and are clamped
// inside the field.
func (f *Field) Step(resonance int) {
	speed := float64(resonance) / MaxResonance
	for i := range f.Particles {
		p := &f.Particles[i]
		p.X += p.DX * speed
		p.Y += p.DY * speed
		if p.X < 0 || p.X > f.Width {
			p.DX = -p.DX
			p.X = clamp(p.X, 0, f.Width)
		}
		if p.Y < 0 || p.Y > f.Height {
			p.DY = -p.DY
			p.Y = clamp(p.Y, 0, f.Height)
		}
	}
}

// Density buckets particles into a cols x rows grid for text rendering.
func (f *Field) Density(cols, rows int) [][]int {
	grid := make([][]int, rows)
	for i := range grid {
		grid[i] = make([]int, cols)
	}
	if cols == 0 || rows == 0 || f.Width <= 0 || f.Height <= 0 {
		return grid
	}
	for _, p := range f.Particles {
		c := min(int(p.X/f.Width*float64(cols)), cols-1)
		r := min(int(p.Y/f.Height*float64(rows)), rows-1)
		grid[max(r, 0)][max(c, 0)]++
	}
	return grid
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
