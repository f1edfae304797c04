package terrain

// HeightAt returns the bilinearly interpolated Z at a tile-local position.
// Positions outside the tile are clamped to its edge.
func (g *Geometry) HeightAt(localX, localY float64) float64 {
	if g == nil || g.lines < 2 || g.lod <= 0 {
		return 0
	}

	cellFX := (localX + g.offset) / g.lod
	cellFY := (localY + g.offset) / g.lod

	cellX := int(cellFX)
	cellY := int(cellFY)

	// Clamp to valid range
	if cellX < 0 {
		cellX = 0
	}
	if cellY < 0 {
		cellY = 0
	}
	if cellX >= g.lines-1 {
		cellX = g.lines - 2
	}
	if cellY >= g.lines-1 {
		cellY = g.lines - 2
	}

	fracX := clampf(cellFX-float64(cellX), 0, 1)
	fracY := clampf(cellFY-float64(cellY), 0, 1)

	z := func(i, j int) float64 {
		return g.Samples[i+j*g.lines].Z
	}

	// South edge (lower Y): lerp between SW and SE
	south := z(cellX, cellY)*(1-fracX) + z(cellX+1, cellY)*fracX
	// North edge (higher Y): lerp between NW and NE
	north := z(cellX, cellY+1)*(1-fracX) + z(cellX+1, cellY+1)*fracX
	return south*(1-fracY) + north*fracY
}

func clampf(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
