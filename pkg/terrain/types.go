// Package terrain builds per-tile terrain geometry from a noise field.
package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Coord identifies a tile on the infinite terrain grid.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// Color is an 8-bit RGBA vertex color.
type Color struct {
	R, G, B, A uint8
}

// White is the default vertex color.
var White = Color{255, 255, 255, 255}

// HeightSample is the per-vertex record kept for the biome and asset passes.
type HeightSample struct {
	I, J  int        // Local grid indices
	World mgl64.Vec2 // World XY of the vertex
	Noise float64    // Normalized octave value, before amplitude
	Z     float64    // Scaled height
}

// MeshBuffers holds parallel vertex arrays and the triangle index list.
// Every array except Indices has one entry per grid vertex.
type MeshBuffers struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
	Normals  []mgl32.Vec3
	Tangents []mgl32.Vec3
	UVs      []mgl32.Vec2
	Colors   []Color
}

// Bounds holds the axis-aligned bounding box of a tile in local space.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Geometry is the result of building one tile.
type Geometry struct {
	Coord   Coord
	Mesh    *MeshBuffers
	Samples []HeightSample
	MaxZ    float64
	Bounds  Bounds

	lines  int
	lod    float64
	offset float64
}

// Heights returns the scaled Z of every vertex in index order.
func (g *Geometry) Heights() []float64 {
	zs := make([]float64, len(g.Samples))
	for i, s := range g.Samples {
		zs[i] = s.Z
	}
	return zs
}

// GridLineCount returns the number of vertices along one tile edge.
func (g *Geometry) GridLineCount() int {
	return g.lines
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}
