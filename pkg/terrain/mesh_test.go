package terrain

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/noise"
)

// flatField returns the same value everywhere.
type flatField float64

func (f flatField) Sample3(x, y, z float64) float64 { return float64(f) }

func scenarioSettings() Settings {
	return Settings{
		TileSize:     50000,
		LOD:          1000,
		HeightRange:  100,
		TextureScale: 1,
	}
}

func scenarioParams() HeightParams {
	return HeightParams{Amplitude: 5, Frequency: 12.0, Octaves: 8}
}

func mustBuilder(t *testing.T, s Settings, f noise.Field, p HeightParams, mode NormalMode) *Builder {
	t.Helper()
	b, err := NewBuilder(s, f, p, mode)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestGridInvariants(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		lines    int
	}{
		{"two lines", Settings{TileSize: 10, LOD: 10, HeightRange: 1, TextureScale: 1}, 2},
		{"uneven division", Settings{TileSize: 105, LOD: 10, HeightRange: 5, TextureScale: 2}, 11},
		{"scenario", scenarioSettings(), 51},
		{"optimal lod", Settings{TileSize: 1000, OptimalLOD: true, HeightRange: 10, TextureScale: 1}, 51},
		{"meters", Settings{TileSize: 1, TileUnit: UnitM, LOD: 20, HeightRange: 1, TextureScale: 1}, 6},
	}

	for _, tt := range tests {
		for _, mode := range []NormalMode{NormalsFlat, NormalsSmooth} {
			t.Run(tt.name+"/"+string(mode), func(t *testing.T) {
				b := mustBuilder(t, tt.settings, noise.NewPerlin(1), scenarioParams(), mode)
				g := b.Build(Coord{X: 2, Y: -3})
				m := g.Mesh

				if got := tt.settings.GridLineCount(); got != tt.lines {
					t.Fatalf("GridLineCount() = %d, want %d", got, tt.lines)
				}
				want := tt.lines * tt.lines
				for name, n := range map[string]int{
					"vertices": len(m.Vertices),
					"normals":  len(m.Normals),
					"tangents": len(m.Tangents),
					"uvs":      len(m.UVs),
					"colors":   len(m.Colors),
					"samples":  len(g.Samples),
				} {
					if n != want {
						t.Errorf("len(%s) = %d, want %d", name, n, want)
					}
				}
				if wantIdx := 6 * (tt.lines - 1) * (tt.lines - 1); len(m.Indices) != wantIdx {
					t.Errorf("len(indices) = %d, want %d", len(m.Indices), wantIdx)
				}
				for i, idx := range m.Indices {
					if int(idx) >= len(m.Vertices) {
						t.Fatalf("index %d = %d out of range %d", i, idx, len(m.Vertices))
					}
				}
			})
		}
	}
}

func TestTriangulateSingleQuad(t *testing.T) {
	indices := Triangulate(2)
	want := []uint32{0, 2, 3, 0, 3, 1}
	if !reflect.DeepEqual(indices, want) {
		t.Fatalf("Triangulate(2) = %v, want %v", indices, want)
	}

	covered := make(map[uint32]bool)
	for _, i := range indices {
		covered[i] = true
	}
	if len(covered) != 4 {
		t.Errorf("expected all 4 corners covered, got %v", covered)
	}

	s := Settings{TileSize: 10, LOD: 10, HeightRange: 1, TextureScale: 1}
	g := mustBuilder(t, s, flatField(0), HeightParams{Amplitude: 1, Frequency: 1, Octaves: 1}, NormalsFlat).Build(Coord{})
	v := g.Mesh.Vertices
	for tri := 0; tri < 2; tri++ {
		a, b, c := v[indices[tri*3]], v[indices[tri*3+1]], v[indices[tri*3+2]]
		n := FaceNormal(a, b, c)
		if n.Z() <= 0 {
			t.Errorf("triangle %d face normal %v does not point up", tri, n)
		}
	}
}

func TestWindingConsistentOnRoughTerrain(t *testing.T) {
	b := mustBuilder(t, scenarioSettings(), noise.NewPerlin(3140), scenarioParams(), NormalsFlat)
	m := b.Build(Coord{X: 1, Y: 1}).Mesh
	for tri := 0; tri+2 < len(m.Indices); tri += 3 {
		a, bb, c := m.Vertices[m.Indices[tri]], m.Vertices[m.Indices[tri+1]], m.Vertices[m.Indices[tri+2]]
		if FaceNormal(a, bb, c).Z() <= 0 {
			t.Fatalf("triangle %d is wound the wrong way", tri/3)
		}
	}
}

func TestScenarioIsByteIdentical(t *testing.T) {
	first := mustBuilder(t, scenarioSettings(), noise.NewPerlin(3140), scenarioParams(), NormalsFlat).Build(Coord{})
	second := mustBuilder(t, scenarioSettings(), noise.NewPerlin(3140), scenarioParams(), NormalsFlat).Build(Coord{})

	if first.GridLineCount() != 51 {
		t.Fatalf("GridLineCount() = %d, want 51", first.GridLineCount())
	}
	if !reflect.DeepEqual(first.Mesh, second.Mesh) {
		t.Fatal("two builds with identical inputs differ")
	}
	if Fingerprint(first.Mesh) != Fingerprint(second.Mesh) {
		t.Fatal("fingerprints differ for identical builds")
	}

	// The terrain must not be flat or the scenario is meaningless.
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range first.Samples {
		lo = math.Min(lo, s.Z)
		hi = math.Max(hi, s.Z)
	}
	if hi-lo < 1 {
		t.Errorf("expected height variation, got range [%v, %v]", lo, hi)
	}
	if first.MaxZ != hi {
		t.Errorf("MaxZ = %v, want %v", first.MaxZ, hi)
	}
}

func TestFingerprintDetectsChange(t *testing.T) {
	g := mustBuilder(t, scenarioSettings(), noise.NewPerlin(3140), scenarioParams(), NormalsFlat).Build(Coord{})
	before := Fingerprint(g.Mesh)
	g.Mesh.Colors[10] = Color{1, 2, 3, 4}
	if Fingerprint(g.Mesh) == before {
		t.Error("fingerprint unchanged after color edit")
	}
}

func TestTilesAreContinuousAcrossEdges(t *testing.T) {
	b := mustBuilder(t, scenarioSettings(), noise.NewPerlin(3140), scenarioParams(), NormalsFlat)
	left := b.Build(Coord{X: 0, Y: 0})
	right := b.Build(Coord{X: 1, Y: 0})
	n := left.GridLineCount()
	for j := range n {
		l := left.Samples[(n-1)+j*n].Z
		r := right.Samples[0+j*n].Z
		if math.Abs(l-r) > 1e-9 {
			t.Fatalf("edge row %d: left %v != right %v", j, l, r)
		}
	}
}

func TestVertexLayout(t *testing.T) {
	s := Settings{TileSize: 40, LOD: 10, HeightRange: 1, TextureScale: 4}
	g := mustBuilder(t, s, flatField(0.5), HeightParams{Amplitude: 2, Frequency: 1, Octaves: 1}, NormalsFlat).Build(Coord{X: 3, Y: 1})

	// field 0.5 -> normalized 0.75 -> amplitude 2 -> Z = 1.5
	idx := 2 + 1*5
	if got, want := g.Mesh.Vertices[idx], (mgl32.Vec3{20, 10, 1.5}); got != want {
		t.Errorf("vertex = %v, want %v", got, want)
	}
	if got := g.Samples[idx].Noise; got != 0.75 {
		t.Errorf("sample noise = %v, want 0.75 before amplitude", got)
	}
	if got, want := g.Mesh.UVs[idx], (mgl32.Vec2{0.5, 0.25}); got != want {
		t.Errorf("uv = %v, want %v", got, want)
	}
	if got := g.Samples[idx].World; got[0] != 140 || got[1] != 50 {
		t.Errorf("world = %v, want (140, 50)", got)
	}
	for i, n := range g.Mesh.Normals {
		if !n.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
			t.Fatalf("flat terrain normal %d = %v", i, n)
		}
	}
}

func TestCenteredOffsetsLocalPositions(t *testing.T) {
	s := Settings{TileSize: 40, LOD: 10, HeightRange: 1, TextureScale: 1, Centered: true}
	g := mustBuilder(t, s, flatField(0), HeightParams{Amplitude: 1, Frequency: 1, Octaves: 1}, NormalsFlat).Build(Coord{})
	if got := g.Mesh.Vertices[0]; got.X() != -20 || got.Y() != -20 {
		t.Errorf("first vertex = %v, want (-20,-20)", got)
	}
	if got := g.Samples[0].World; got[0] != 0 || got[1] != 0 {
		t.Errorf("world position should be unaffected by centering, got %v", got)
	}
}

func TestSmoothNormalsAreUnitAndUp(t *testing.T) {
	g := mustBuilder(t, scenarioSettings(), noise.NewPerlin(3140), scenarioParams(), NormalsSmooth).Build(Coord{})
	for i, n := range g.Mesh.Normals {
		if l := n.Len(); l < 0.999 || l > 1.001 {
			t.Fatalf("normal %d length %v", i, l)
		}
		if n.Z() <= 0 {
			t.Fatalf("normal %d = %v points down", i, n)
		}
		if d := n.Dot(g.Mesh.Tangents[i]); math.Abs(float64(d)) > 1e-3 {
			t.Fatalf("tangent %d not orthogonal to normal (dot %v)", i, d)
		}
	}
}

func TestBoundsCoverVertices(t *testing.T) {
	s := Settings{TileSize: 40, LOD: 10, HeightRange: 1, TextureScale: 1, Centered: true}
	g := mustBuilder(t, s, noise.NewPerlin(3140), scenarioParams(), NormalsFlat).Build(Coord{X: 1, Y: 2})

	if g.Bounds.Min[0] != -20 || g.Bounds.Max[0] != 20 || g.Bounds.Min[1] != -20 || g.Bounds.Max[1] != 20 {
		t.Errorf("xy bounds = %v..%v, want -20..20", g.Bounds.Min, g.Bounds.Max)
	}
	if float64(g.Bounds.Max[2]) != float64(float32(g.MaxZ)) {
		t.Errorf("max z bound = %v, want %v", g.Bounds.Max[2], g.MaxZ)
	}
	for i, v := range g.Mesh.Vertices {
		for axis := range 3 {
			if v[axis] < g.Bounds.Min[axis] || v[axis] > g.Bounds.Max[axis] {
				t.Fatalf("vertex %d = %v outside bounds %v..%v", i, v, g.Bounds.Min, g.Bounds.Max)
			}
		}
	}
}

func TestHeightAtMatchesSamples(t *testing.T) {
	g := mustBuilder(t, scenarioSettings(), noise.NewPerlin(3140), scenarioParams(), NormalsFlat).Build(Coord{})
	n := g.GridLineCount()
	for _, idx := range []int{0, 7, n + 3, n*n - 1} {
		s := g.Samples[idx]
		got := g.HeightAt(float64(s.I)*1000, float64(s.J)*1000)
		if math.Abs(got-s.Z) > 1e-9 {
			t.Errorf("HeightAt(%d,%d) = %v, want %v", s.I, s.J, got, s.Z)
		}
	}

	mid := g.HeightAt(500, 0)
	want := (g.Samples[0].Z + g.Samples[1].Z) / 2
	if math.Abs(mid-want) > 1e-9 {
		t.Errorf("HeightAt midpoint = %v, want %v", mid, want)
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := Settings{TileSize: 100, LOD: 10, HeightRange: 10, TextureScale: 1}

	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"zero tile size", func(s *Settings) { s.TileSize = 0 }, "tile.size"},
		{"negative lod", func(s *Settings) { s.LOD = -1 }, "tile.lod"},
		{"lod larger than tile", func(s *Settings) { s.LOD = 200 }, "tile.lod"},
		{"zero height range", func(s *Settings) { s.HeightRange = 0 }, "tile.height_range"},
		{"zero texture scale", func(s *Settings) { s.TextureScale = 0 }, "tile.texture_scale"},
		{"bad unit", func(s *Settings) { s.TileUnit = "mi" }, "tile.tile_unit"},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestHeightParamsValidate(t *testing.T) {
	tests := []HeightParams{
		{Amplitude: 0, Frequency: 1, Octaves: 1},
		{Amplitude: 1, Frequency: 0, Octaves: 1},
		{Amplitude: 1, Frequency: 1, Octaves: 0},
	}
	for _, p := range tests {
		if _, err := NewBuilder(DefaultSettings(), noise.NewPerlin(1), p, NormalsFlat); err == nil {
			t.Errorf("NewBuilder(%+v) expected error", p)
		}
	}
	if _, err := NewBuilder(DefaultSettings(), noise.NewPerlin(1), scenarioParams(), "bumpy"); err == nil {
		t.Error("expected error for unknown normal mode")
	}
}

func TestWaterPlane(t *testing.T) {
	s := Settings{TileSize: 100, LOD: 10, HeightRange: 10, TextureScale: 1}
	w := WaterPlane(s, 42)
	if len(w.Vertices) != 4 || len(w.Indices) != 6 {
		t.Fatalf("unexpected water plane sizes %d/%d", len(w.Vertices), len(w.Indices))
	}
	for _, v := range w.Vertices {
		if v.Z() != 42 {
			t.Errorf("water vertex %v not at level 42", v)
		}
	}
	for tri := 0; tri < 2; tri++ {
		a, b, c := w.Vertices[w.Indices[tri*3]], w.Vertices[w.Indices[tri*3+1]], w.Vertices[w.Indices[tri*3+2]]
		if FaceNormal(a, b, c).Z() <= 0 {
			t.Errorf("water triangle %d wound the wrong way", tri)
		}
	}
}
