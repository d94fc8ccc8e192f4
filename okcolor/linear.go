package okcolor

import (
	"image/color"
	"math"
)

// LinearRGB is an opaque color with linear-light channels in [0, 1].
type LinearRGB struct {
	R float64
	G float64
	B float64
}

var LinearRGBModel = color.ModelFunc(linearRGBConvert)

// linearRGBConvert ignores alpha: colors are un-premultiplied and treated as opaque.
func linearRGBConvert(c color.Color) color.Color {
	if _, ok := c.(LinearRGB); ok {
		return c
	}

	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return LinearRGB{
		R: toLinear(float64(n.R) / 65535),
		G: toLinear(float64(n.G) / 65535),
		B: toLinear(float64(n.B) / 65535),
	}
}

func (lc LinearRGB) RGBA() (uint32, uint32, uint32, uint32) {
	return uint32(math.Round(fromLinear(clamp01(lc.R)) * 65535)),
		uint32(math.Round(fromLinear(clamp01(lc.G)) * 65535)),
		uint32(math.Round(fromLinear(clamp01(lc.B)) * 65535)),
		0xffff
}

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	} else {
		return x / 12.92
	}
}

const pow float64 = 1.0 / 2.4

func fromLinear(x float64) float64 {
	if x >= 0.0031308 {
		return math.Pow(x, pow)*1.055 - 0.055
	} else {
		return x * 12.92
	}
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
