package biome

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

// Validate checks the band list. When colorByBiome is set, every band that
// can match a height must carry at least one color.
func Validate(bands []Band, colorByBiome bool) error {
	for i := range bands {
		b := &bands[i]
		field := fmt.Sprintf("biomes[%d]", i)
		if b.Name != "" {
			field = fmt.Sprintf("biomes[%d](%s)", i, b.Name)
		}

		if b.MinHeight < 0 || b.MinHeight > 1 {
			return &terrain.ConfigError{Field: field + ".min_height", Reason: fmt.Sprintf("must be in [0,1], got %v", b.MinHeight)}
		}
		if b.MaxHeight < 0 || b.MaxHeight > 1 {
			return &terrain.ConfigError{Field: field + ".max_height", Reason: fmt.Sprintf("must be in [0,1], got %v", b.MaxHeight)}
		}
		reachable := b.MinHeight <= b.MaxHeight
		if colorByBiome && reachable && len(b.Colors) == 0 {
			return &terrain.ConfigError{Field: field + ".colors", Reason: "band matches heights but has no colors"}
		}

		if a := b.Asset; a != nil {
			if a.Probability < 0 || a.Probability > 1 {
				return &terrain.ConfigError{Field: field + ".asset.probability", Reason: fmt.Sprintf("must be in [0,1], got %v", a.Probability)}
			}
			if a.RandomScale {
				for axis := range 3 {
					if a.MaxScale[axis] < 1 {
						return &terrain.ConfigError{Field: field + ".asset.max_scale", Reason: fmt.Sprintf("components must be >= 1, got %v", a.MaxScale)}
					}
				}
			}
		}
	}
	return nil
}
