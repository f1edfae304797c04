package stream

import (
	"fmt"
	"math"
	"runtime"

	"github.com/Faultbox/midgard-terrain/pkg/biome"
	"github.com/Faultbox/midgard-terrain/pkg/noise"
	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

// Mode selects between a one-off baked grid and viewer-driven streaming.
type Mode string

const (
	ModeFixed     Mode = "fixed"
	ModeStreaming Mode = "streaming"
)

// DistanceTest selects the shape of the streamed area around the viewer.
type DistanceTest string

const (
	DistanceChebyshev DistanceTest = "chebyshev" // square of tiles
	DistanceEuclidean DistanceTest = "euclidean" // disc of tiles
)

// optimalViewDivisor relates NumberOfTiles to the derived view distance.
const optimalViewDivisor = 1.8

// Options configures a Manager.
type Options struct {
	// Noise
	Seed        int64 // 0 picks a random seed
	RandomSeed  bool  // always pick a random seed, including on Rebuild
	NoiseSource string
	Amplitude   float64
	Frequency   float64
	Octaves     int

	Tile  terrain.Settings
	Bands []biome.Band

	UseWater    bool
	WaterHeight float64 // fraction of Amplitude * HeightRange

	Mode                Mode
	NumberOfTiles       int
	MaxViewDistance     float64
	OptimalViewDistance bool // derive MaxViewDistance from NumberOfTiles
	AssetViewDistance   float64
	DistanceTest        DistanceTest
	EvictFactor         float64 // 0 hides out-of-range tiles without evicting

	UseVertexColor bool
	UseHeightMap   bool // grayscale by height, wins over UseVertexColor
	SpawnAssets    bool

	NormalMode  terrain.NormalMode
	Workers     int
	AwaitBuilds bool // Tick waits for the builds it schedules

	TerrainMaterial biome.Handle
	WaterMaterial   biome.Handle
}

// DefaultOptions returns a small fixed grid with the stock biome bands.
func DefaultOptions() Options {
	return Options{
		NoiseSource:       noise.SourcePerlin,
		Amplitude:         5,
		Frequency:         2,
		Octaves:           6,
		Tile:              terrain.DefaultSettings(),
		Bands:             biome.Defaults(),
		WaterHeight:       0.3,
		Mode:              ModeFixed,
		NumberOfTiles:     3,
		DistanceTest:      DistanceChebyshev,
		EvictFactor:       1.5,
		UseVertexColor:    true,
		SpawnAssets:       true,
		NormalMode:        terrain.NormalsFlat,
		Workers:           runtime.NumCPU(),
		AwaitBuilds:       true,
	}
}

// Height returns the noise shaping parameters.
func (o *Options) Height() terrain.HeightParams {
	return terrain.HeightParams{Amplitude: o.Amplitude, Frequency: o.Frequency, Octaves: o.Octaves}
}

// ViewDistance returns the effective max view distance in world units.
func (o *Options) ViewDistance() float64 {
	if o.OptimalViewDistance || o.MaxViewDistance <= 0 {
		return float64(o.NumberOfTiles) * o.Tile.WorldTileSize() / optimalViewDivisor
	}
	return o.MaxViewDistance
}

// AssetDistance returns the effective asset view distance. Zero means the
// same as the terrain view distance.
func (o *Options) AssetDistance() float64 {
	if o.AssetViewDistance <= 0 {
		return o.ViewDistance()
	}
	return o.AssetViewDistance
}

// Radius returns the streamed radius in tiles.
func (o *Options) Radius() int {
	return int(math.Floor(o.ViewDistance() / o.Tile.WorldTileSize()))
}

// WaterLevel returns the Z of the water plane.
func (o *Options) WaterLevel() float64 {
	return o.WaterHeight * o.Amplitude * o.Tile.WorldHeightRange()
}

// ColorByBiome reports whether band palettes are used for vertex colors.
func (o *Options) ColorByBiome() bool {
	return o.UseVertexColor && !o.UseHeightMap
}

// Validate checks every option. Errors are *terrain.ConfigError.
func (o *Options) Validate() error {
	if err := o.Tile.Validate(); err != nil {
		return err
	}
	if err := o.Height().Validate(); err != nil {
		return err
	}
	if err := biome.Validate(o.Bands, o.ColorByBiome()); err != nil {
		return err
	}
	switch o.NoiseSource {
	case "", noise.SourcePerlin, noise.SourceSimplex:
	default:
		return &terrain.ConfigError{Field: "noise.source", Reason: fmt.Sprintf("unknown source %q", o.NoiseSource)}
	}
	switch o.NormalMode {
	case "", terrain.NormalsFlat, terrain.NormalsSmooth:
	default:
		return &terrain.ConfigError{Field: "terrain.normals", Reason: fmt.Sprintf("unknown mode %q", o.NormalMode)}
	}
	if o.UseWater && (o.WaterHeight < 0 || o.WaterHeight > 1) {
		return &terrain.ConfigError{Field: "water.height", Reason: fmt.Sprintf("must be in [0,1], got %v", o.WaterHeight)}
	}

	switch o.Mode {
	case ModeFixed, ModeStreaming:
	default:
		return &terrain.ConfigError{Field: "stream.mode", Reason: fmt.Sprintf("unknown mode %q", o.Mode)}
	}
	switch o.DistanceTest {
	case DistanceChebyshev, DistanceEuclidean:
	default:
		return &terrain.ConfigError{Field: "stream.distance_test", Reason: fmt.Sprintf("unknown test %q", o.DistanceTest)}
	}
	if o.NumberOfTiles < 1 {
		return &terrain.ConfigError{Field: "stream.tiles", Reason: fmt.Sprintf("must be >= 1, got %d", o.NumberOfTiles)}
	}
	if o.MaxViewDistance < 0 {
		return &terrain.ConfigError{Field: "stream.max_view_distance", Reason: fmt.Sprintf("must be >= 0, got %v", o.MaxViewDistance)}
	}
	if o.AssetViewDistance < 0 {
		return &terrain.ConfigError{Field: "stream.asset_view_distance", Reason: fmt.Sprintf("must be >= 0, got %v", o.AssetViewDistance)}
	}
	if o.EvictFactor != 0 && o.EvictFactor < 1 {
		return &terrain.ConfigError{Field: "stream.evict_factor", Reason: fmt.Sprintf("must be 0 or >= 1, got %v", o.EvictFactor)}
	}
	if o.Workers < 1 {
		return &terrain.ConfigError{Field: "stream.workers", Reason: fmt.Sprintf("must be >= 1, got %d", o.Workers)}
	}
	return nil
}
