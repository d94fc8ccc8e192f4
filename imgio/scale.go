package imgio

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// MaxScale bounds the enlargement factor of Scale.
const MaxScale = 64

// Scale enlarges img by an integer factor, every source pixel becoming a factor x factor
// block of the same color. Paletted images stay paletted.
func Scale(img image.Image, factor int) (image.Image, error) {
	if factor == 1 {
		return img, nil
	}
	if factor < 1 || factor > MaxScale {
		return nil, fmt.Errorf("invalid scale factor %d, must be between 1 and %d", factor, MaxScale)
	}

	sr := img.Bounds()
	dr := image.Rect(0, 0, sr.Dx()*factor, sr.Dy()*factor)

	var dest draw.Image
	if p, ok := img.(*image.Paletted); ok {
		dest = image.NewPaletted(dr, p.Palette)
	} else {
		dest = image.NewNRGBA(dr)
	}
	draw.NearestNeighbor.Scale(dest, dr, img, sr, draw.Src, nil)
	return dest, nil
}
