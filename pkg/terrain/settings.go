package terrain

import "math"

// Unit scales a configured length into world units (centimeters).
type Unit string

const (
	UnitCM Unit = "cm"
	UnitM  Unit = "m"
	UnitKM Unit = "km"
)

// Scale returns the multiplier to world units. Empty means centimeters.
func (u Unit) Scale() float64 {
	switch u {
	case UnitM:
		return 100
	case UnitKM:
		return 100000
	default:
		return 1
	}
}

func (u Unit) valid() bool {
	switch u {
	case "", UnitCM, UnitM, UnitKM:
		return true
	}
	return false
}

// Settings is shared by every tile of a generation pass.
type Settings struct {
	TileSize     float64
	LOD          float64 // World units between adjacent grid samples
	HeightRange  float64
	TextureScale float64

	// OptimalLOD derives LOD as TileSize/50 and ignores LOD.
	OptimalLOD bool
	// Centered shifts local vertex positions so the tile origin is its middle.
	Centered bool

	TileUnit   Unit
	LODUnit    Unit
	HeightUnit Unit
}

// DefaultSettings mirrors the stock tile settings.
func DefaultSettings() Settings {
	return Settings{
		TileSize:     1000,
		LOD:          10,
		HeightRange:  100,
		TextureScale: 1,
		Centered:     false,
	}
}

// WorldTileSize returns the tile edge length in world units.
func (s Settings) WorldTileSize() float64 {
	return s.TileSize * s.TileUnit.Scale()
}

// WorldLOD returns the sample spacing in world units.
func (s Settings) WorldLOD() float64 {
	if s.OptimalLOD {
		return s.WorldTileSize() / 50
	}
	return s.LOD * s.LODUnit.Scale()
}

// WorldHeightRange returns the vertical scale in world units.
func (s Settings) WorldHeightRange() float64 {
	return s.HeightRange * s.HeightUnit.Scale()
}

// GridLineCount is floor(tileSize/lod) + 1.
func (s Settings) GridLineCount() int {
	lod := s.WorldLOD()
	if lod <= 0 {
		return 0
	}
	return int(math.Floor(s.WorldTileSize()/lod)) + 1
}

// GridVertexCount is GridLineCount squared.
func (s Settings) GridVertexCount() int {
	n := s.GridLineCount()
	return n * n
}

// IndexCount is the triangle index count for one tile.
func (s Settings) IndexCount() int {
	q := s.GridLineCount() - 1
	if q < 0 {
		return 0
	}
	return 6 * q * q
}

// Validate rejects settings that would divide by zero or produce an empty grid.
func (s Settings) Validate() error {
	if !s.TileUnit.valid() {
		return configErr("tile.tile_unit", "unknown unit %q", s.TileUnit)
	}
	if !s.LODUnit.valid() {
		return configErr("tile.lod_unit", "unknown unit %q", s.LODUnit)
	}
	if !s.HeightUnit.valid() {
		return configErr("tile.height_unit", "unknown unit %q", s.HeightUnit)
	}
	if s.TileSize <= 0 {
		return configErr("tile.size", "must be > 0, got %v", s.TileSize)
	}
	if !s.OptimalLOD && s.LOD <= 0 {
		return configErr("tile.lod", "must be > 0, got %v", s.LOD)
	}
	if s.HeightRange <= 0 {
		return configErr("tile.height_range", "must be > 0, got %v", s.HeightRange)
	}
	if s.TextureScale <= 0 {
		return configErr("tile.texture_scale", "must be > 0, got %v", s.TextureScale)
	}
	if n := s.GridLineCount(); n < 2 {
		return configErr("tile.lod", "lod %v larger than tile size %v leaves %d grid lines",
			s.WorldLOD(), s.WorldTileSize(), n)
	}
	return nil
}
