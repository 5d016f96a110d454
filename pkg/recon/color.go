package recon

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/eunmann/splat4d/pkg/format"
)

// RGB is a linear color with channels in [0,1].
type RGB [3]float32

// Image is a reconstructed plane, row-major.
type Image struct {
	Width  int
	Height int
	Pix    []RGB
}

// At returns the color at column x, row y.
func (img *Image) At(x, y int) RGB {
	return img.Pix[y*img.Width+x]
}

// NRGBA converts the image to 8-bit channels with full opacity.
func (img *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: to8(c[0]),
				G: to8(c[1]),
				B: to8(c[2]),
				A: 0xFF,
			})
		}
	}
	return out
}

func to8(v float32) uint8 {
	return uint8(math.Round(float64(clamp01(v)) * 255))
}

// Scale holds the factors that bring stored colors into [0,1].
type Scale struct {
	RGB   float32
	Alpha float32
}

// ColorScale detects how the palette stores color. If any r, g or b exceeds
// 1 the colors are 0-255 magnitudes and RGB is 1/255, otherwise 1. Alpha is
// detected the same way, independently.
func ColorScale(v *format.Video) Scale {
	var maxRGB, maxAlpha float32
	for _, e := range v.Palette() {
		maxRGB = max(maxRGB, e.R, e.G, e.B)
		maxAlpha = max(maxAlpha, e.Alpha)
	}

	s := Scale{RGB: 1, Alpha: 1}
	if maxRGB > 1 {
		s.RGB = 1.0 / 255
	}
	if maxAlpha > 1 {
		s.Alpha = 1.0 / 255
	}
	return s
}

// Colors returns the premultiplied color of every palette entry: normalized
// RGB times normalized alpha, clamped to [0,1]. Entries with mask[id] false
// are black. A nil mask means every entry is active.
func Colors(v *format.Video, mask []bool) ([]RGB, error) {
	n := v.PaletteSize()
	if mask != nil && len(mask) != n {
		return nil, fmt.Errorf("mask has %d entries for palette of %d: %w", len(mask), n, ErrOutOfBounds)
	}

	s := ColorScale(v)
	lut := make([]RGB, n)
	for id, e := range v.Palette() {
		if mask != nil && !mask[id] {
			continue
		}
		a := e.Alpha * s.Alpha
		lut[id] = RGB{
			clamp01(e.R * s.RGB * a),
			clamp01(e.G * s.RGB * a),
			clamp01(e.B * s.RGB * a),
		}
	}
	return lut, nil
}

// Reconstruct colors a plane through the palette. mask selects which palette
// entries contribute; nil means all. Inactive entries produce black.
func Reconstruct(v *format.Video, p Plane, mask []bool) (*Image, error) {
	lut, err := Colors(v, mask)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Width:  int(p.Width),
		Height: int(p.Height),
		Pix:    make([]RGB, p.Len()),
	}
	n := uint64(len(lut))
	for i := range img.Pix {
		id := p.t.Flat(p.base + uint64(i))
		if id >= n {
			return nil, fmt.Errorf("palette id %d at frame %d depth %d pixel %d (palette size %d): %w",
				id, p.Frame, p.Depth, i, n, ErrOutOfBounds)
		}
		img.Pix[i] = lut[id]
	}
	return img, nil
}

// clamp01 clamps v to [0,1], mapping NaN to 0.
func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
