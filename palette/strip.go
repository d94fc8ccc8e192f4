// Package palette reads and writes palettes: RIFF PAL files, one-row "strip" images
// with one pixel per color, and OKLab based color matching.
package palette

import (
	"fmt"
	"image"

	"pmapedit/pmap"
)

// StripImage returns a len(keys) x 1 image holding one pixel per color, in order.
func StripImage(keys []pmap.ColorKey) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, len(keys), 1))
	for i, k := range keys {
		img.Pix[i*4] = k.R
		img.Pix[i*4+1] = k.G
		img.Pix[i*4+2] = k.B
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// FromStrip reads the colors of the first row of img, left to right.
func FromStrip(img image.Image) []pmap.ColorKey {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	keys := make([]pmap.ColorKey, 0, b.Dx())
	for x := b.Min.X; x < b.Max.X; x++ {
		keys = append(keys, pmap.ColorKeyOf(img.At(x, b.Min.Y)))
	}
	return keys
}

// Mapping pairs from[i] with to[i]. Both palettes must have the same size; pairs that
// map a color to itself are left out.
func Mapping(from, to []pmap.ColorKey) (map[pmap.ColorKey]pmap.ColorKey, error) {
	if len(from) != len(to) {
		return nil, fmt.Errorf("palette size mismatch: expected %d, got %d", len(from), len(to))
	}

	m := make(map[pmap.ColorKey]pmap.ColorKey, len(from))
	for i, k := range from {
		if k != to[i] {
			m[k] = to[i]
		}
	}
	return m, nil
}
