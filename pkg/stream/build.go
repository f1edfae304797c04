package stream

import (
	"math/rand"
	"sync/atomic"

	"github.com/Faultbox/midgard-terrain/pkg/biome"
	"github.com/Faultbox/midgard-terrain/pkg/scatter"
	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

// build is the output of one tile computation, assembled off the
// coordinating goroutine and published by it.
type build struct {
	coord       terrain.Coord
	seed        int64
	geom        *terrain.Geometry
	water       *terrain.MeshBuffers
	buckets     []scatter.Bucket
	fingerprint uint64
}

// pipeline runs geometry, coloring and scatter for one seed. A new pipeline
// is made each time the manager reseeds and the old one is retired.
type pipeline struct {
	opts    Options
	seed    int64
	builder *terrain.Builder
	max     *RunningMax
	retired atomic.Bool
}

// run builds c completely. A retired pipeline returns the bare geometry
// without touching the running max; its result is never published.
func (p *pipeline) run(c terrain.Coord) *build {
	b := p.geometry(c)
	if p.retired.Load() {
		return b
	}
	p.finish(b)
	return b
}

func (p *pipeline) geometry(c terrain.Coord) *build {
	return &build{
		coord: c,
		seed:  TileSeed(p.seed, c),
		geom:  p.builder.Build(c),
	}
}

// finish raises the running max and derives colors, assets and water from
// the heights normalized against it.
func (p *pipeline) finish(b *build) {
	p.max.Observe(b.geom.MaxZ)
	mesh := b.geom.Mesh
	heights := biome.Normalize(b.geom.Heights(), p.max.Load())

	switch {
	case p.opts.UseHeightMap:
		copy(mesh.Colors, biome.Grayscale(heights))
	case p.opts.UseVertexColor:
		rng := rand.New(rand.NewSource(b.seed))
		copy(mesh.Colors, biome.Colorize(rng, heights, p.opts.Bands))
	}

	if p.opts.SpawnAssets {
		b.buckets = scatter.Scatter(b.seed, heights, mesh.Vertices, p.opts.Bands)
	}
	if p.opts.UseWater {
		b.water = terrain.WaterPlane(p.opts.Tile, p.opts.WaterLevel())
	}
	b.fingerprint = terrain.Fingerprint(mesh)
}
