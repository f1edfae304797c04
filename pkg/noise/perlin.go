// Package noise provides seeded gradient noise fields used as the height
// source for terrain generation.
package noise

import (
	"math"
	"math/rand"
)

// Field is a spatially continuous scalar field in [-1, 1].
type Field interface {
	Sample3(x, y, z float64) float64
}

// Perlin is an improved gradient noise field driven by a seeded permutation.
// The zero value is unseeded; Seed must be called before sampling.
type Perlin struct {
	seed   int64
	perm   [512]int
	seeded bool
}

// NewPerlin returns a field seeded with seed.
func NewPerlin(seed int64) *Perlin {
	p := &Perlin{}
	p.Seed(seed)
	return p
}

// Seed rebuilds the permutation table from seed. Each of the first 256
// slots draws an unused value in [0,255] from a stream rooted at seed; the
// table is then mirrored into 256..511 so lookups never wrap.
func (p *Perlin) Seed(seed int64) {
	r := rand.New(rand.NewSource(seed))

	var available [256]bool
	for i := range available {
		available[i] = true
	}

	for i := 0; i < 256; i++ {
		var next int
		for {
			next = r.Intn(256)
			if available[next] {
				break
			}
		}
		available[next] = false
		p.perm[i] = next
		p.perm[i+256] = next
	}

	p.seed = seed
	p.seeded = true
}

// SeedValue returns the seed the table was built from.
func (p *Perlin) SeedValue() int64 {
	return p.seed
}

// Permutation returns a copy of the 256-entry table (without mirror).
func (p *Perlin) Permutation() [256]int {
	var out [256]int
	copy(out[:], p.perm[:256])
	return out
}

// Sample1 evaluates the field on the X axis.
func (p *Perlin) Sample1(x float64) float64 {
	return p.Sample3(x, 0, 0)
}

// Sample2 evaluates the field on the XY plane.
func (p *Perlin) Sample2(x, y float64) float64 {
	return p.Sample3(x, y, 0)
}

// Sample3 evaluates the field at (x, y, z). Result is in [-1, 1].
func (p *Perlin) Sample3(x, y, z float64) float64 {
	if !p.seeded {
		panic(&PreconditionError{Op: "Sample3", Reason: "perlin field used before Seed"})
	}

	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	X := int(fx) & 255
	Y := int(fy) & 255
	Z := int(fz) & 255

	x -= fx
	y -= fy
	z -= fz

	u := fade(x)
	v := fade(y)
	w := fade(z)

	perm := &p.perm
	A := perm[X] + Y
	AA := perm[A] + Z
	AB := perm[A+1] + Z
	B := perm[X+1] + Y
	BA := perm[B] + Z
	BB := perm[B+1] + Z

	n := lerp(w,
		lerp(v,
			lerp(u, grad(perm[AA], x, y, z), grad(perm[BA], x-1, y, z)),
			lerp(u, grad(perm[AB], x, y-1, z), grad(perm[BB], x-1, y-1, z))),
		lerp(v,
			lerp(u, grad(perm[AA+1], x, y, z-1), grad(perm[BA+1], x-1, y, z-1)),
			lerp(u, grad(perm[AB+1], x, y-1, z-1), grad(perm[BB+1], x-1, y-1, z-1))))

	// The 3D gradient set can overshoot unit range slightly near cell centers.
	return math.Max(-1, math.Min(1, n))
}

// SampleNormalized1 is Sample1 remapped to [0, 1].
func (p *Perlin) SampleNormalized1(x float64) float64 {
	return p.Sample1(x)*0.5 + 0.5
}

// SampleNormalized2 is Sample2 remapped to [0, 1].
func (p *Perlin) SampleNormalized2(x, y float64) float64 {
	return p.Sample2(x, y)*0.5 + 0.5
}

// SampleNormalized3 is Sample3 remapped to [0, 1].
func (p *Perlin) SampleNormalized3(x, y, z float64) float64 {
	return p.Sample3(x, y, z)*0.5 + 0.5
}

// Octave1 sums count octaves on the X axis.
func (p *Perlin) Octave1(x float64, count int) float64 {
	return Octave(p, x, 0, 0, count)
}

// Octave2 sums count octaves on the XY plane.
func (p *Perlin) Octave2(x, y float64, count int) float64 {
	return Octave(p, x, y, 0, count)
}

// Octave3 sums count octaves at (x, y, z).
func (p *Perlin) Octave3(x, y, z float64, count int) float64 {
	return Octave(p, x, y, z, count)
}

// OctaveNormalized1 remaps Octave1 to the [0, 1] convention.
func (p *Perlin) OctaveNormalized1(x float64, count int) float64 {
	return OctaveNormalized(p, x, 0, 0, count)
}

// OctaveNormalized2 remaps Octave2 to the [0, 1] convention.
func (p *Perlin) OctaveNormalized2(x, y float64, count int) float64 {
	return OctaveNormalized(p, x, y, 0, count)
}

// OctaveNormalized3 remaps Octave3 to the [0, 1] convention.
func (p *Perlin) OctaveNormalized3(x, y, z float64, count int) float64 {
	return OctaveNormalized(p, x, y, z, count)
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// grad picks one of 12 edge gradients from the low 4 bits of hash and
// returns its dot product with (x, y, z).
func grad(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := y
	if h < 8 {
		u = x
	}
	var v float64
	switch {
	case h < 4:
		v = y
	case h == 12 || h == 14:
		v = x
	default:
		v = z
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
