package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-terrain/pkg/noise"
)

// NormalMode selects how vertex normals and tangents are derived.
type NormalMode string

const (
	// NormalsFlat assigns each quad's face normal to its bottom-left vertex.
	NormalsFlat NormalMode = "flat"
	// NormalsSmooth averages the area-weighted normals of incident triangles.
	NormalsSmooth NormalMode = "smooth"
)

// HeightParams shapes the noise into heights.
type HeightParams struct {
	Amplitude float64
	Frequency float64 // Noise cycles per tile
	Octaves   int
}

// Validate checks the noise shaping parameters.
func (p HeightParams) Validate() error {
	if p.Amplitude <= 0 {
		return configErr("terrain.amplitude", "must be > 0, got %v", p.Amplitude)
	}
	if p.Frequency <= 0 {
		return configErr("terrain.frequency", "must be > 0, got %v", p.Frequency)
	}
	if p.Octaves <= 0 {
		return configErr("terrain.octaves", "must be >= 1, got %d", p.Octaves)
	}
	return nil
}

// Builder produces MeshBuffers for single tiles. It is safe for concurrent
// use as long as the field is.
type Builder struct {
	field   noise.Field
	params  HeightParams
	normals NormalMode

	tileSize     float64
	lod          float64
	heightRange  float64
	textureScale float64
	offset       float64
	lines        int
}

// NewBuilder validates settings and returns a tile builder.
func NewBuilder(s Settings, field noise.Field, p HeightParams, mode NormalMode) (*Builder, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if field == nil {
		return nil, fmt.Errorf("terrain builder: nil noise field")
	}
	switch mode {
	case "":
		mode = NormalsFlat
	case NormalsFlat, NormalsSmooth:
	default:
		return nil, configErr("terrain.normals", "unknown normal mode %q", mode)
	}

	b := &Builder{
		field:        field,
		params:       p,
		normals:      mode,
		tileSize:     s.WorldTileSize(),
		lod:          s.WorldLOD(),
		heightRange:  s.WorldHeightRange(),
		textureScale: s.TextureScale,
		lines:        s.GridLineCount(),
	}
	if s.Centered {
		b.offset = b.tileSize / 2
	}
	return b, nil
}

// GridLineCount returns the vertex count along one tile edge.
func (b *Builder) GridLineCount() int {
	return b.lines
}

// Build generates the geometry of the tile at coord.
func (b *Builder) Build(coord Coord) *Geometry {
	n := b.lines
	count := n * n

	mesh := &MeshBuffers{
		Vertices: make([]mgl32.Vec3, count),
		Normals:  make([]mgl32.Vec3, count),
		Tangents: make([]mgl32.Vec3, count),
		UVs:      make([]mgl32.Vec2, count),
		Colors:   make([]Color, count),
	}
	samples := make([]HeightSample, count)

	bounds := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	maxZ := 0.0

	originX := float64(coord.X) * b.tileSize
	originY := float64(coord.Y) * b.tileSize

	for j := range n {
		for i := range n {
			idx := i + j*n
			localX := float64(i) * b.lod
			localY := float64(j) * b.lod
			worldX := originX + localX
			worldY := originY + localY

			raw := b.heightAt(worldX, worldY)
			z := raw * b.params.Amplitude * b.heightRange

			pos := mgl32.Vec3{float32(localX - b.offset), float32(localY - b.offset), float32(z)}
			mesh.Vertices[idx] = pos
			mesh.Normals[idx] = mgl32.Vec3{0, 0, 1}
			mesh.Tangents[idx] = mgl32.Vec3{0, -1, 0}
			mesh.UVs[idx] = mgl32.Vec2{float32(float64(i) / b.textureScale), float32(float64(j) / b.textureScale)}
			mesh.Colors[idx] = White

			samples[idx] = HeightSample{
				I:     i,
				J:     j,
				World: mgl64.Vec2{worldX, worldY},
				Noise: raw,
				Z:     z,
			}
			if idx == 0 || z > maxZ {
				maxZ = z
			}
			updateBounds(&bounds, pos)
		}
	}

	mesh.Indices = Triangulate(n)

	switch b.normals {
	case NormalsSmooth:
		SmoothNormals(mesh)
	default:
		FlatNormals(mesh, n)
	}

	return &Geometry{
		Coord:   coord,
		Mesh:    mesh,
		Samples: samples,
		MaxZ:    maxZ,
		Bounds:  bounds,
		lines:   n,
		lod:     b.lod,
		offset:  b.offset,
	}
}

// heightAt samples the field at a world position. Coordinates are expressed
// in tiles before the frequency is applied so grid spacing never lands on
// the integer lattice where gradient noise is zero.
func (b *Builder) heightAt(worldX, worldY float64) float64 {
	nx := worldX / b.tileSize * b.params.Frequency
	ny := worldY / b.tileSize * b.params.Frequency
	return noise.OctaveNormalized(b.field, nx, ny, 0, b.params.Octaves)
}

// Triangulate returns two triangles per grid quad using row-major vertex
// indices: (bottom-left, top-left, top-right) and (bottom-left, top-right,
// bottom-right).
func Triangulate(lines int) []uint32 {
	quads := lines - 1
	if quads <= 0 {
		return nil
	}
	indices := make([]uint32, 0, quads*quads*6)
	for y := range quads {
		for x := range quads {
			botLeft := uint32(x + y*lines)
			topLeft := uint32(x + (y+1)*lines)
			topRight := uint32(x + 1 + (y+1)*lines)
			botRight := uint32(x + 1 + y*lines)
			indices = append(indices,
				botLeft, topLeft, topRight,
				botLeft, topRight, botRight,
			)
		}
	}
	return indices
}

// FaceNormal returns the upward normal of triangle (a, b, c) emitted in
// Triangulate order. The edge cross product points down for that order, so
// it is negated. The result is not normalized.
func FaceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Mul(-1)
}

// FlatNormals assigns one normal per quad. Each vertex takes the normal of
// the quad it is the bottom-left corner of; the last row and column reuse
// their neighbouring quad. Tangents follow the quad diagonal.
func FlatNormals(mesh *MeshBuffers, lines int) {
	quads := lines - 1
	if quads <= 0 {
		return
	}
	for j := range lines {
		qj := min(j, quads-1)
		for i := range lines {
			qi := min(i, quads-1)

			botLeft := mesh.Vertices[qi+qj*lines]
			topLeft := mesh.Vertices[qi+(qj+1)*lines]
			topRight := mesh.Vertices[qi+1+(qj+1)*lines]

			idx := i + j*lines
			mesh.Normals[idx] = normalize(FaceNormal(botLeft, topLeft, topRight), mgl32.Vec3{0, 0, 1})
			mesh.Tangents[idx] = normalize(topRight.Sub(botLeft), mgl32.Vec3{1, 0, 0})
		}
	}
}

// SmoothNormals recomputes normals and tangents from the final vertex,
// index and UV buffers. Shared vertices average the contributions of every
// incident triangle, weighted by area.
func SmoothNormals(mesh *MeshBuffers) {
	normals := make([]mgl32.Vec3, len(mesh.Vertices))
	tangents := make([]mgl32.Vec3, len(mesh.Vertices))

	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		ia, ib, ic := mesh.Indices[t], mesh.Indices[t+1], mesh.Indices[t+2]
		a, b, c := mesh.Vertices[ia], mesh.Vertices[ib], mesh.Vertices[ic]

		face := FaceNormal(a, b, c)
		normals[ia] = normals[ia].Add(face)
		normals[ib] = normals[ib].Add(face)
		normals[ic] = normals[ic].Add(face)

		// Tangent along +U from the UV gradient of the triangle.
		e1, e2 := b.Sub(a), c.Sub(a)
		uvA, uvB, uvC := mesh.UVs[ia], mesh.UVs[ib], mesh.UVs[ic]
		du1, dv1 := uvB[0]-uvA[0], uvB[1]-uvA[1]
		du2, dv2 := uvC[0]-uvA[0], uvC[1]-uvA[1]
		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		tan := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(1 / det)
		tangents[ia] = tangents[ia].Add(tan)
		tangents[ib] = tangents[ib].Add(tan)
		tangents[ic] = tangents[ic].Add(tan)
	}

	for i := range normals {
		n := normalize(normals[i], mgl32.Vec3{0, 0, 1})
		t := tangents[i]
		// Gram-Schmidt against the normal.
		t = t.Sub(n.Mul(n.Dot(t)))
		mesh.Normals[i] = n
		mesh.Tangents[i] = normalize(t, mgl32.Vec3{1, 0, 0})
	}
}

// Helper functions

func updateBounds(b *Bounds, p mgl32.Vec3) {
	for axis := range 3 {
		if p[axis] < b.Min[axis] {
			b.Min[axis] = p[axis]
		}
		if p[axis] > b.Max[axis] {
			b.Max[axis] = p[axis]
		}
	}
}

func normalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 0.0001 {
		return fallback
	}
	return v.Normalize()
}
