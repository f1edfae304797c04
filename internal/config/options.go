package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/biome"
	"github.com/Faultbox/midgard-terrain/pkg/stream"
	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

// Options converts the config into manager options.
func (c *Config) Options() (stream.Options, error) {
	bands, err := c.bands()
	if err != nil {
		return stream.Options{}, err
	}

	o := stream.Options{
		Seed:        c.Terrain.Seed,
		RandomSeed:  c.Terrain.RandomSeed,
		NoiseSource: c.Terrain.Noise,
		Amplitude:   c.Terrain.Amplitude,
		Frequency:   c.Terrain.Frequency,
		Octaves:     c.Terrain.Octaves,
		Tile: terrain.Settings{
			TileSize:     c.Tile.Size,
			LOD:          c.Tile.LOD,
			HeightRange:  c.Tile.HeightRange,
			TextureScale: c.Tile.TextureScale,
			OptimalLOD:   c.Tile.OptimalLOD,
			Centered:     c.Tile.Centered,
			TileUnit:     terrain.Unit(c.Tile.TileUnit),
			LODUnit:      terrain.Unit(c.Tile.LODUnit),
			HeightUnit:   terrain.Unit(c.Tile.HeightUnit),
		},
		Bands:               bands,
		UseWater:            c.Water.Enabled,
		WaterHeight:         c.Water.Height,
		Mode:                stream.Mode(c.Stream.Mode),
		NumberOfTiles:       c.Stream.Tiles,
		MaxViewDistance:     c.Stream.MaxViewDistance,
		OptimalViewDistance: c.Stream.OptimalViewDistance,
		AssetViewDistance:   c.Stream.AssetViewDistance,
		DistanceTest:        stream.DistanceTest(c.Stream.DistanceTest),
		EvictFactor:         c.Stream.EvictFactor,
		UseVertexColor:      c.Color.VertexColor,
		UseHeightMap:        c.Color.HeightMap,
		SpawnAssets:         c.Color.SpawnAssets,
		NormalMode:          terrain.NormalMode(c.Terrain.Normals),
		Workers:             c.Stream.Workers,
		AwaitBuilds:         c.Stream.AwaitBuilds,
		TerrainMaterial:     biome.Handle(c.Terrain.Material),
		WaterMaterial:       biome.Handle(c.Water.Material),
	}
	if o.Workers == 0 {
		o.Workers = stream.DefaultOptions().Workers
	}
	return o, nil
}

// Validate checks the config without building anything.
func (c *Config) Validate() error {
	o, err := c.Options()
	if err != nil {
		return err
	}
	return o.Validate()
}

func (c *Config) bands() ([]biome.Band, error) {
	bands := make([]biome.Band, len(c.Biomes))
	for i, b := range c.Biomes {
		field := fmt.Sprintf("biomes[%d]", i)
		bands[i] = biome.Band{Name: b.Name, MinHeight: b.MinHeight, MaxHeight: b.MaxHeight}

		for j, s := range b.Colors {
			col, err := ParseColor(s)
			if err != nil {
				return nil, &terrain.ConfigError{Field: fmt.Sprintf("%s.colors[%d]", field, j), Reason: err.Error()}
			}
			bands[i].Colors = append(bands[i].Colors, col)
		}

		if a := b.Asset; a != nil {
			asset := &biome.Asset{
				Mesh:           biome.Handle(a.Mesh),
				Probability:    a.Probability,
				Collision:      a.Collision,
				RandomRotation: a.RandomRotation,
				RandomScale:    a.RandomScale,
				MaxScale:       mgl32.Vec3{1, 1, 1},
			}
			switch len(a.MaxScale) {
			case 0:
			case 1:
				s := float32(a.MaxScale[0])
				asset.MaxScale = mgl32.Vec3{s, s, s}
			case 3:
				asset.MaxScale = mgl32.Vec3{float32(a.MaxScale[0]), float32(a.MaxScale[1]), float32(a.MaxScale[2])}
			default:
				return nil, &terrain.ConfigError{Field: field + ".asset.max_scale", Reason: fmt.Sprintf("want 1 or 3 values, got %d", len(a.MaxScale))}
			}
			bands[i].Asset = asset
		}
	}
	return bands, nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa". Alpha defaults to opaque.
func ParseColor(s string) (terrain.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return terrain.Color{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return terrain.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return terrain.Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
