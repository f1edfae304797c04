// Package scatter places decorative asset instances on tile vertices.
package scatter

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/biome"
)

// Instance is one placed asset in tile-local space.
type Instance struct {
	Position  mgl32.Vec3
	Rotation  mgl32.Quat
	Scale     mgl32.Vec3
	Collision bool
}

// Matrix returns the local transform of the instance (translate * rotate * scale).
func (in Instance) Matrix() mgl32.Mat4 {
	t := mgl32.Translate3D(in.Position.X(), in.Position.Y(), in.Position.Z())
	r := in.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(in.Scale.X(), in.Scale.Y(), in.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// Bucket collects the instances of one band.
type Bucket struct {
	Band      int
	Name      string
	Mesh      biome.Handle
	Collision bool
	Instances []Instance
}

// Scatter returns one bucket per band. Draws come from a stream seeded with
// tileSeed, so the same inputs always produce the same placements. Bands
// without an asset or without a mesh get an empty bucket.
func Scatter(tileSeed int64, heights []float64, positions []mgl32.Vec3, bands []biome.Band) []Bucket {
	rng := rand.New(rand.NewSource(tileSeed))
	buckets := make([]Bucket, len(bands))

	for b := range bands {
		band := &bands[b]
		buckets[b] = Bucket{Band: b, Name: band.Name}

		asset := band.Asset
		if asset == nil || asset.Mesh == "" {
			continue
		}
		buckets[b].Mesh = asset.Mesh
		buckets[b].Collision = asset.Collision

		for v, h := range heights {
			if !band.Contains(h) {
				continue
			}
			if rng.Float64() > asset.Probability {
				continue
			}
			buckets[b].Instances = append(buckets[b].Instances, place(rng, asset, positions[v]))
		}
	}
	return buckets
}

func place(rng *rand.Rand, asset *biome.Asset, pos mgl32.Vec3) Instance {
	in := Instance{
		Position:  pos,
		Rotation:  mgl32.QuatIdent(),
		Scale:     mgl32.Vec3{1, 1, 1},
		Collision: asset.Collision,
	}
	if asset.RandomRotation {
		rx := mgl32.DegToRad(rng.Float32() * 360)
		ry := mgl32.DegToRad(rng.Float32() * 360)
		rz := mgl32.DegToRad(rng.Float32() * 360)
		in.Rotation = mgl32.AnglesToQuat(rx, ry, rz, mgl32.XYZ)
	}
	if asset.RandomScale {
		for axis := range 3 {
			in.Scale[axis] = 1 + rng.Float32()*(asset.MaxScale[axis]-1)
		}
	}
	return in
}
