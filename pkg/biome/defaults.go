package biome

import "github.com/Faultbox/midgard-terrain/pkg/terrain"

// Defaults returns the stock beach, plain, mountain and snow bands.
func Defaults() []Band {
	return []Band{
		{
			Name:      "Beach",
			MinHeight: 0.0,
			MaxHeight: 0.45,
			Colors: []terrain.Color{
				terrain.RGB(255, 235, 175),
				terrain.RGB(255, 230, 160),
				terrain.RGB(255, 225, 140),
			},
		},
		{
			Name:      "Plain",
			MinHeight: 0.45,
			MaxHeight: 0.75,
			Colors: []terrain.Color{
				terrain.RGB(110, 200, 110),
				terrain.RGB(95, 190, 95),
				terrain.RGB(120, 220, 120),
			},
		},
		{
			Name:      "Mountain",
			MinHeight: 0.75,
			MaxHeight: 0.95,
			Colors: []terrain.Color{
				terrain.RGB(180, 180, 180),
				terrain.RGB(170, 170, 170),
				terrain.RGB(160, 160, 160),
			},
		},
		{
			Name:      "Snow",
			MinHeight: 0.95,
			MaxHeight: 1.0,
			Colors: []terrain.Color{
				terrain.RGB(240, 240, 240),
				terrain.RGB(230, 230, 230),
			},
		},
	}
}
