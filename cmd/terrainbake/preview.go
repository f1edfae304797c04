package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/Faultbox/midgard-terrain/pkg/stream"
)

var previewBackground = color.NRGBA{R: 10, G: 10, B: 18, A: 255}

// renderPreview draws the vertex colors of tiles top-down, one pixel per
// grid vertex, with +Y pointing up the image.
func renderPreview(tiles []stream.Tile) *image.NRGBA {
	if len(tiles) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}

	lines := int(math.Sqrt(float64(len(tiles[0].Samples))))
	step := max(lines-1, 1)

	minX, minY := tiles[0].Coord.X, tiles[0].Coord.Y
	maxX, maxY := minX, minY
	for _, t := range tiles {
		minX, maxX = min(minX, t.Coord.X), max(maxX, t.Coord.X)
		minY, maxY = min(minY, t.Coord.Y), max(maxY, t.Coord.Y)
	}

	width := (maxX-minX+1)*step + 1
	height := (maxY-minY+1)*step + 1
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{previewBackground}, image.Point{}, draw.Src)

	for _, t := range tiles {
		if t.Mesh == nil {
			continue
		}
		ox := (t.Coord.X - minX) * step
		oy := (t.Coord.Y - minY) * step
		for idx, s := range t.Samples {
			c := t.Mesh.Colors[idx]
			img.SetNRGBA(ox+s.I, height-1-(oy+s.J), color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

// savePreview encodes img as a PNG at path.
func savePreview(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create preview dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}
