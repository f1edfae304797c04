package noise

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"
)

// Source names accepted by New.
const (
	SourcePerlin  = "perlin"
	SourceSimplex = "simplex"
)

// Simplex adapts OpenSimplex noise to the Field interface.
type Simplex struct {
	noise opensimplex.Noise
}

// NewSimplex returns a simplex field rooted at seed.
func NewSimplex(seed int64) *Simplex {
	return &Simplex{noise: opensimplex.New(seed)}
}

// Sample3 evaluates the field at (x, y, z). Result is in [-1, 1].
func (s *Simplex) Sample3(x, y, z float64) float64 {
	if s == nil || s.noise == nil {
		panic(&PreconditionError{Op: "Sample3", Reason: "simplex field used before construction"})
	}
	return s.noise.Eval3(x, y, z)
}

// New builds the named noise source seeded with seed. An empty name selects
// perlin.
func New(kind string, seed int64) (Field, error) {
	switch kind {
	case "", SourcePerlin:
		return NewPerlin(seed), nil
	case SourceSimplex:
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise source %q", kind)
	}
}
