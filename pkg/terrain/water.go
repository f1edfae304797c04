package terrain

import "github.com/go-gl/mathgl/mgl32"

// WaterPlane returns a flat quad covering one tile at height z.
func WaterPlane(s Settings, z float64) *MeshBuffers {
	size := float32(s.WorldTileSize())
	var offset float32
	if s.Centered {
		offset = size / 2
	}
	lo, hi := -offset, size-offset
	h := float32(z)

	up := mgl32.Vec3{0, 0, 1}
	tan := mgl32.Vec3{1, 0, 0}
	blue := Color{R: 64, G: 120, B: 200, A: 180}

	return &MeshBuffers{
		Vertices: []mgl32.Vec3{{lo, lo, h}, {hi, lo, h}, {lo, hi, h}, {hi, hi, h}},
		// Same winding as Triangulate: (BL, TL, TR), (BL, TR, BR).
		Indices:  []uint32{0, 2, 3, 0, 3, 1},
		Normals:  []mgl32.Vec3{up, up, up, up},
		Tangents: []mgl32.Vec3{tan, tan, tan, tan},
		UVs:      []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		Colors:   []Color{blue, blue, blue, blue},
	}
}
