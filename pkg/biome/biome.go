// Package biome classifies vertices into height bands and colors them.
//
// Bands may overlap. Bands are applied in list order and every match
// overwrites the previous color, so the last matching band wins.
package biome

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

// Handle is an opaque host resource name (mesh, material).
type Handle string

// Asset describes the decorative mesh scattered over a band.
type Asset struct {
	Mesh           Handle
	Probability    float64 // per eligible vertex, in [0, 1]
	Collision      bool
	RandomRotation bool
	RandomScale    bool
	MaxScale       mgl32.Vec3
}

// Band maps a normalized height range to a palette and an optional asset.
type Band struct {
	Name      string
	MinHeight float64
	MaxHeight float64
	Colors    []terrain.Color
	Asset     *Asset
}

// Contains reports whether a normalized height falls in the band.
func (b *Band) Contains(h float64) bool {
	return h >= b.MinHeight && h <= b.MaxHeight
}

// Normalize divides each height by runningMax and clamps to [0, 1].
func Normalize(zs []float64, runningMax float64) []float64 {
	out := make([]float64, len(zs))
	if runningMax <= 0 {
		return out
	}
	for i, z := range zs {
		h := z / runningMax
		if h < 0 {
			h = 0
		} else if h > 1 {
			h = 1
		}
		out[i] = h
	}
	return out
}

// Colorize assigns every vertex a color drawn from the palette of the last
// band containing its height. Vertices outside every band stay white.
func Colorize(rng *rand.Rand, heights []float64, bands []Band) []terrain.Color {
	colors := make([]terrain.Color, len(heights))
	for i := range colors {
		colors[i] = terrain.White
	}
	for i, h := range heights {
		for b := range bands {
			band := &bands[b]
			if !band.Contains(h) || len(band.Colors) == 0 {
				continue
			}
			colors[i] = band.Colors[rng.Intn(len(band.Colors))]
		}
	}
	return colors
}

// Grayscale maps heights straight to gray levels, ignoring bands.
func Grayscale(heights []float64) []terrain.Color {
	colors := make([]terrain.Color, len(heights))
	for i, h := range heights {
		g := h * 255
		if g < 0 {
			g = 0
		} else if g > 255 {
			g = 255
		}
		v := uint8(g)
		colors[i] = terrain.Color{R: v, G: v, B: v, A: 255}
	}
	return colors
}
