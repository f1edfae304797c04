// Package config handles terrain configuration loading and management.
package config

// Config holds all generator settings.
type Config struct {
	Terrain TerrainConfig `yaml:"terrain" toml:"terrain"`
	Tile    TileConfig    `yaml:"tile" toml:"tile"`
	Water   WaterConfig   `yaml:"water" toml:"water"`
	Stream  StreamConfig  `yaml:"stream" toml:"stream"`
	Color   ColorConfig   `yaml:"color" toml:"color"`
	Biomes  []BiomeConfig `yaml:"biomes" toml:"biomes"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// TerrainConfig holds noise and height shaping settings.
type TerrainConfig struct {
	Seed       int64   `yaml:"seed" toml:"seed"` // 0 picks a random seed
	RandomSeed bool    `yaml:"random_seed" toml:"random_seed"`
	Noise      string  `yaml:"noise" toml:"noise"` // perlin or simplex
	Amplitude  float64 `yaml:"amplitude" toml:"amplitude"`
	Frequency  float64 `yaml:"frequency" toml:"frequency"`
	Octaves    int     `yaml:"octaves" toml:"octaves"`
	Normals    string  `yaml:"normals" toml:"normals"` // flat or smooth
	Material   string  `yaml:"material" toml:"material"`
}

// TileConfig holds per-tile grid settings.
type TileConfig struct {
	Size         float64 `yaml:"size" toml:"size"`
	LOD          float64 `yaml:"lod" toml:"lod"`
	HeightRange  float64 `yaml:"height_range" toml:"height_range"`
	TextureScale float64 `yaml:"texture_scale" toml:"texture_scale"`
	OptimalLOD   bool    `yaml:"optimal_lod" toml:"optimal_lod"`
	Centered     bool    `yaml:"centered" toml:"centered"`
	TileUnit     string  `yaml:"tile_unit" toml:"tile_unit"`
	LODUnit      string  `yaml:"lod_unit" toml:"lod_unit"`
	HeightUnit   string  `yaml:"height_unit" toml:"height_unit"`
}

// WaterConfig holds the water plane settings.
type WaterConfig struct {
	Enabled  bool    `yaml:"enabled" toml:"enabled"`
	Height   float64 `yaml:"height" toml:"height"` // Fraction of the height scale
	Material string  `yaml:"material" toml:"material"`
}

// StreamConfig holds tile residency settings.
type StreamConfig struct {
	Mode                string  `yaml:"mode" toml:"mode"` // fixed or streaming
	Tiles               int     `yaml:"tiles" toml:"tiles"`
	MaxViewDistance     float64 `yaml:"max_view_distance" toml:"max_view_distance"`
	OptimalViewDistance bool    `yaml:"optimal_view_distance" toml:"optimal_view_distance"`
	AssetViewDistance   float64 `yaml:"asset_view_distance" toml:"asset_view_distance"`
	DistanceTest        string  `yaml:"distance_test" toml:"distance_test"`
	EvictFactor         float64 `yaml:"evict_factor" toml:"evict_factor"`
	Workers             int     `yaml:"workers" toml:"workers"` // 0 uses every CPU
	AwaitBuilds         bool    `yaml:"await_builds" toml:"await_builds"`
}

// ColorConfig selects how vertices are colored and decorated.
type ColorConfig struct {
	VertexColor bool `yaml:"vertex_color" toml:"vertex_color"`
	HeightMap   bool `yaml:"height_map" toml:"height_map"`
	SpawnAssets bool `yaml:"spawn_assets" toml:"spawn_assets"`
}

// BiomeConfig describes one height band. Colors are "#rrggbb" or "#rrggbbaa".
type BiomeConfig struct {
	Name      string       `yaml:"name" toml:"name"`
	MinHeight float64      `yaml:"min_height" toml:"min_height"`
	MaxHeight float64      `yaml:"max_height" toml:"max_height"`
	Colors    []string     `yaml:"colors" toml:"colors"`
	Asset     *AssetConfig `yaml:"asset,omitempty" toml:"asset,omitempty"`
}

// AssetConfig describes the mesh scattered over a band.
type AssetConfig struct {
	Mesh           string    `yaml:"mesh" toml:"mesh"`
	Probability    float64   `yaml:"probability" toml:"probability"`
	Collision      bool      `yaml:"collision" toml:"collision"`
	RandomRotation bool      `yaml:"random_rotation" toml:"random_rotation"`
	RandomScale    bool      `yaml:"random_scale" toml:"random_scale"`
	MaxScale       []float64 `yaml:"max_scale" toml:"max_scale"`
}

// OutputConfig holds terrainbake output settings.
type OutputConfig struct {
	Ticks   int    `yaml:"ticks" toml:"ticks"`     // Viewer steps in streaming mode
	Preview string `yaml:"preview" toml:"preview"` // PNG path, empty disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Seed:      3140,
			Noise:     "perlin",
			Amplitude: 5,
			Frequency: 2,
			Octaves:   6,
			Normals:   "flat",
		},
		Tile: TileConfig{
			Size:         1000,
			LOD:          10,
			HeightRange:  100,
			TextureScale: 1,
		},
		Water: WaterConfig{
			Enabled: false,
			Height:  0.3,
		},
		Stream: StreamConfig{
			Mode:         "fixed",
			Tiles:        3,
			DistanceTest: "chebyshev",
			EvictFactor:  1.5,
			AwaitBuilds:  true,
		},
		Color: ColorConfig{
			VertexColor: true,
			SpawnAssets: true,
		},
		Biomes: []BiomeConfig{
			{Name: "Beach", MinHeight: 0, MaxHeight: 0.45, Colors: []string{"#ffebaf", "#ffe6a0", "#ffe18c"}},
			{Name: "Plain", MinHeight: 0.45, MaxHeight: 0.75, Colors: []string{"#6ec86e", "#5fbe5f", "#78dc78"}},
			{Name: "Mountain", MinHeight: 0.75, MaxHeight: 0.95, Colors: []string{"#b4b4b4", "#aaaaaa", "#a0a0a0"}},
			{Name: "Snow", MinHeight: 0.95, MaxHeight: 1, Colors: []string{"#f0f0f0", "#e6e6e6"}},
		},
		Output: OutputConfig{
			Ticks: 5,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
