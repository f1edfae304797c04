package scatter

import (
	"math"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/biome"
)

func grid(n int) ([]float64, []mgl32.Vec3) {
	heights := make([]float64, n)
	positions := make([]mgl32.Vec3, n)
	for i := range heights {
		heights[i] = 0.5
		positions[i] = mgl32.Vec3{float32(i), float32(i * 2), 3}
	}
	return heights, positions
}

func TestScatterProbability(t *testing.T) {
	const trials = 100000
	heights, positions := grid(trials)
	bands := []biome.Band{{
		Name:      "plain",
		MinHeight: 0,
		MaxHeight: 1,
		Asset:     &biome.Asset{Mesh: "tree", Probability: 0.1},
	}}

	buckets := Scatter(3140, heights, positions, bands)
	got := float64(len(buckets[0].Instances)) / trials
	if math.Abs(got-0.1) > 0.005 {
		t.Errorf("placement rate = %.4f, want 0.1 +/- 0.005", got)
	}
}

func TestScatterOneBucketPerBand(t *testing.T) {
	heights, positions := grid(100)
	bands := []biome.Band{
		{Name: "bare", MinHeight: 0, MaxHeight: 1},
		{Name: "no mesh", MinHeight: 0, MaxHeight: 1, Asset: &biome.Asset{Probability: 1}},
		{Name: "rocks", MinHeight: 0, MaxHeight: 1, Asset: &biome.Asset{Mesh: "rock", Probability: 1, Collision: true}},
		{Name: "out of range", MinHeight: 0.9, MaxHeight: 1, Asset: &biome.Asset{Mesh: "snowman", Probability: 1}},
	}

	buckets := Scatter(1, heights, positions, bands)
	if len(buckets) != len(bands) {
		t.Fatalf("got %d buckets, want %d", len(buckets), len(bands))
	}
	for i, b := range buckets {
		if b.Band != i || b.Name != bands[i].Name {
			t.Errorf("bucket %d = band %d %q", i, b.Band, b.Name)
		}
	}
	if n := len(buckets[0].Instances) + len(buckets[1].Instances) + len(buckets[3].Instances); n != 0 {
		t.Errorf("expected no instances outside the rock band, got %d", n)
	}

	rocks := buckets[2]
	if len(rocks.Instances) != 100 {
		t.Fatalf("rocks: got %d instances, want 100", len(rocks.Instances))
	}
	if rocks.Mesh != "rock" || !rocks.Collision {
		t.Errorf("rocks bucket = %+v", rocks)
	}
	for i, in := range rocks.Instances {
		if in.Position != positions[i] {
			t.Fatalf("instance %d at %v, want %v", i, in.Position, positions[i])
		}
		if !in.Collision {
			t.Fatalf("instance %d lost collision flag", i)
		}
		if in.Scale != (mgl32.Vec3{1, 1, 1}) {
			t.Fatalf("instance %d scaled without RandomScale: %v", i, in.Scale)
		}
	}
}

func TestScatterRandomTransforms(t *testing.T) {
	heights, positions := grid(500)
	maxScale := mgl32.Vec3{2, 3, 1.5}
	bands := []biome.Band{{
		MinHeight: 0,
		MaxHeight: 1,
		Asset: &biome.Asset{
			Mesh:           "bush",
			Probability:    1,
			RandomRotation: true,
			RandomScale:    true,
			MaxScale:       maxScale,
		},
	}}

	rotated := 0
	for _, in := range Scatter(42, heights, positions, bands)[0].Instances {
		for axis := range 3 {
			s := in.Scale[axis]
			if s < 1 || s > maxScale[axis] {
				t.Fatalf("scale %v out of [1, %v]", in.Scale, maxScale)
			}
		}
		if math.Abs(float64(in.Rotation.Len())-1) > 1e-4 {
			t.Fatalf("rotation not unit: %v", in.Rotation)
		}
		if !in.Rotation.ApproxEqual(mgl32.QuatIdent()) {
			rotated++
		}
	}
	if rotated < 490 {
		t.Errorf("only %d of 500 instances rotated", rotated)
	}
}

func TestScatterDeterministic(t *testing.T) {
	heights, positions := grid(2000)
	bands := biome.Defaults()
	for i := range bands {
		bands[i].Asset = &biome.Asset{Mesh: biome.Handle(bands[i].Name), Probability: 0.3, RandomRotation: true}
	}

	a := Scatter(99, heights, positions, bands)
	b := Scatter(99, heights, positions, bands)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different placements")
	}

	c := Scatter(100, heights, positions, bands)
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical placements")
	}
}

func TestInstanceMatrix(t *testing.T) {
	in := Instance{
		Position: mgl32.Vec3{10, 20, 30},
		Rotation: mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}),
		Scale:    mgl32.Vec3{2, 2, 2},
	}
	got := in.Matrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	want := mgl32.Vec3{10, 22, 30}
	if !got.ApproxEqualThreshold(want, 1e-4) {
		t.Errorf("Matrix * (1,0,0) = %v, want %v", got, want)
	}
}
