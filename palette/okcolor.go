package palette

import (
	"cmp"
	"fmt"
	"image/color"
	"math"
	"slices"

	"pmapedit/okcolor"
	"pmapedit/pmap"
)

// Lab is a palette in OKLab space, for perceptual nearest-color lookups.
type Lab []okcolor.Lab

func NewLab(keys []pmap.ColorKey) Lab {
	p := make(Lab, len(keys))
	for i, k := range keys {
		p[i] = okcolor.LabModel.Convert(k).(okcolor.Lab)
	}
	return p
}

// Index returns the position of the palette color closest to c, or -1 for an empty
// palette. Ties go to the lowest index.
func (p Lab) Index(c color.Color) int {
	lc := okcolor.LabModel.Convert(c).(okcolor.Lab)

	ret, bestSum := -1, math.MaxFloat64
	for i, v := range p {
		dL := lc.L - v.L
		da := lc.A - v.A
		db := lc.B - v.B
		sum := dL*dL + da*da + db*db
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	return ret
}

// Nearest returns the position in keys of the color perceptually closest to target,
// or -1 if keys is empty.
func Nearest(keys []pmap.ColorKey, target pmap.ColorKey) int {
	if i := slices.Index(keys, target); i >= 0 {
		return i
	}
	return NewLab(keys).Index(target)
}

// Order selects how Sorted arranges a palette.
type Order string

const (
	ByIndex     Order = "index"
	ByLightness Order = "lightness"
	ByHue       Order = "hue"
)

// Sorted returns a sorted copy of keys. ByIndex keeps the original order; the other
// orders are stable.
func Sorted(keys []pmap.ColorKey, order Order) ([]pmap.ColorKey, error) {
	type item struct {
		key pmap.ColorKey
		lch okcolor.LCh
	}

	items := make([]item, len(keys))
	for i, k := range keys {
		items[i] = item{k, okcolor.LChModel.Convert(k).(okcolor.LCh)}
	}

	switch order {
	case ByIndex, "":
	case ByLightness:
		slices.SortStableFunc(items, func(a, b item) int { return cmp.Compare(a.lch.L, b.lch.L) })
	case ByHue:
		// Achromatic colors have no meaningful hue and go first, darkest to lightest.
		const gray = 1e-4
		slices.SortStableFunc(items, func(a, b item) int {
			ag, bg := a.lch.C < gray, b.lch.C < gray
			switch {
			case ag && bg:
				return cmp.Compare(a.lch.L, b.lch.L)
			case ag:
				return -1
			case bg:
				return 1
			}
			return cmp.Or(cmp.Compare(a.lch.H, b.lch.H), cmp.Compare(a.lch.L, b.lch.L))
		})
	default:
		return nil, fmt.Errorf("unsupported palette order %q", order)
	}

	res := make([]pmap.ColorKey, len(items))
	for i, it := range items {
		res[i] = it.key
	}
	return res, nil
}
