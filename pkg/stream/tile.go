package stream

import (
	"github.com/Faultbox/midgard-terrain/pkg/scatter"
	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

// State is the lifecycle stage of a tile.
type State int

const (
	StateAbsent State = iota
	StateBuilding
	StateResident
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateResident:
		return "resident"
	default:
		return "absent"
	}
}

// Tile is a resident terrain tile. Values returned by Manager accessors are
// snapshots; the buffers they point to must not be modified.
type Tile struct {
	ID      int
	Coord   terrain.Coord
	Seed    int64
	Mesh    *terrain.MeshBuffers
	Samples []terrain.HeightSample
	Water   *terrain.MeshBuffers
	Buckets []scatter.Bucket
	Bounds  terrain.Bounds
	MaxZ    float64

	Fingerprint   uint64
	Visible       bool
	AssetsVisible bool
	Generated     bool

	geom      *terrain.Geometry
	mesh      MeshSink
	instances map[int]InstanceSink
}

// TileSeed derives the seed of the tile at c. Overflow wraps.
func TileSeed(global int64, c terrain.Coord) int64 {
	return global*int64(c.X) + int64(c.Y)
}

func (t *Tile) setVisible(terrainVisible, assetsVisible bool) {
	if t.mesh != nil && t.Visible != terrainVisible {
		t.mesh.SetVisible(terrainVisible)
	}
	if t.AssetsVisible != assetsVisible {
		for _, s := range t.instances {
			s.SetVisible(assetsVisible)
		}
	}
	t.Visible = terrainVisible
	t.AssetsVisible = assetsVisible
}

func (t *Tile) apply(b *build) {
	t.Seed = b.seed
	t.Mesh = b.geom.Mesh
	t.Samples = b.geom.Samples
	t.MaxZ = b.geom.MaxZ
	t.Bounds = b.geom.Bounds
	t.geom = b.geom
	t.Water = b.water
	t.Buckets = b.buckets
	t.Fingerprint = b.fingerprint
	t.Generated = true
}

// previous rebuilds the build last applied to t.
func (t *Tile) previous() *build {
	return &build{
		coord:       t.Coord,
		seed:        t.Seed,
		geom:        t.geom,
		water:       t.Water,
		buckets:     t.Buckets,
		fingerprint: t.Fingerprint,
	}
}
