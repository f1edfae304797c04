package stream

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-terrain/pkg/biome"
	"github.com/Faultbox/midgard-terrain/pkg/scatter"
	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

// Mesh section ids used on every tile's MeshSink.
const (
	SectionTerrain = 0
	SectionWater   = 1
)

// MeshSink receives the procedural mesh of one tile. Implementations are
// called from a single goroutine only.
type MeshSink interface {
	CreateSection(id int, mesh *terrain.MeshBuffers) error
	UpdateSection(id int, mesh *terrain.MeshBuffers) error
	SetSectionMaterial(id int, material biome.Handle) error
	SetVisible(visible bool)
	ClearSection(id int)
}

// InstanceSink receives the instances of one band on one tile.
type InstanceSink interface {
	SetMesh(mesh biome.Handle) error
	AddInstance(in scatter.Instance) error
	ClearInstances()
	SetVisible(visible bool)
}

// SinkFactory hands out sinks for tiles. Release is called when a tile is
// evicted or destroyed; sinks for that coordinate are not used afterwards.
type SinkFactory interface {
	MeshSink(coord terrain.Coord) (MeshSink, error)
	InstanceSink(coord terrain.Coord, band int) (InstanceSink, error)
	Release(coord terrain.Coord)
}

// Viewer reports the world position streaming is centered on. ok is false
// when no viewer is bound.
type Viewer interface {
	Position() (pos mgl64.Vec3, ok bool)
}
