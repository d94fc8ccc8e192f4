package pmap

import (
	"fmt"
	"image"
	"image/color"
	"iter"
	"slices"
)

const (
	// Channels is the number of bytes per pixel in the buffers taken by FromPixels and
	// returned by Reconstruct: R, G, B.
	Channels = 3
	// MaxPixels bounds width*height of the images an Index is built from or rendered to.
	// Decode rejects coordinates at or beyond it.
	MaxPixels = 1 << 26
)

type entry struct {
	key    ColorKey
	coords CoordinateSet
}

// Index is a bidirectional color <-> pixel index. Colors keep the order in which they
// were first seen; each pixel belongs to exactly one color.
//
// An Index is not safe for concurrent use.
type Index struct {
	entries []*entry
	byKey   map[ColorKey]*entry
	owner   map[Coordinate]*entry
}

// New returns an empty Index.
func New() *Index {
	return newIndex(0, 0)
}

func newIndex(colors, pixels int) *Index {
	return &Index{
		entries: make([]*entry, 0, colors),
		byKey:   make(map[ColorKey]*entry, colors),
		owner:   make(map[Coordinate]*entry, pixels),
	}
}

// add appends c to the set of k. The caller guarantees c is not indexed yet.
func (ix *Index) add(k ColorKey, c Coordinate) {
	e := ix.byKey[k]
	if e == nil {
		e = &entry{key: k}
		ix.byKey[k] = e
		ix.entries = append(ix.entries, e)
	}
	e.coords = append(e.coords, c)
	ix.owner[c] = e
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrDimensionMismatch, width, height)
	}
	if width > MaxPixels/height {
		return fmt.Errorf("%w: size %dx%d exceeds %d pixels", ErrDimensionMismatch, width, height, MaxPixels)
	}
	return nil
}

// FromPixels indexes a packed RGB buffer of width*height*Channels bytes, scanning rows
// top to bottom and each row left to right.
func FromPixels(pix []byte, width, height int) (*Index, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	if want := width * height * Channels; len(pix) != want {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, %dx%d needs %d", ErrDimensionMismatch,
			len(pix), width, height, want)
	}

	ix := newIndex(0, width*height)
	i := 0
	for y := range height {
		for x := range width {
			ix.add(ColorKey{pix[i], pix[i+1], pix[i+2]}, Coordinate{x, y})
			i += Channels
		}
	}

	return ix, nil
}

// FromImage indexes img in the same order as FromPixels. Coordinates are relative to
// img.Bounds().Min and alpha is ignored.
func FromImage(img image.Image) *Index {
	b := img.Bounds()
	ix := newIndex(0, b.Dx()*b.Dy())

	switch src := img.(type) {
	case *image.Paletted:
		keys := make([]ColorKey, len(src.Palette))
		for i, c := range src.Palette {
			keys[i] = ColorKeyOf(c)
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				ix.add(keys[src.ColorIndexAt(x, y)], Coordinate{x - b.Min.X, y - b.Min.Y})
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				ix.add(ColorKeyOf(img.At(x, y)), Coordinate{x - b.Min.X, y - b.Min.Y})
			}
		}
	}

	return ix
}

// Len returns the number of distinct colors.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Colors returns the colors in index order.
func (ix *Index) Colors() []ColorKey {
	keys := make([]ColorKey, len(ix.entries))
	for i, e := range ix.entries {
		keys[i] = e.key
	}
	return keys
}

// Palette returns the colors in index order as a color.Palette.
func (ix *Index) Palette() color.Palette {
	pal := make(color.Palette, len(ix.entries))
	for i, e := range ix.entries {
		pal[i] = e.key
	}
	return pal
}

// Has reports whether k is indexed, with or without pixels.
func (ix *Index) Has(k ColorKey) bool {
	_, ok := ix.byKey[k]
	return ok
}

// PixelCount returns the number of pixels of color k, 0 if k is not indexed.
func (ix *Index) PixelCount(k ColorKey) int {
	if e := ix.byKey[k]; e != nil {
		return len(e.coords)
	}
	return 0
}

// Coordinates returns a copy of the pixels of color k.
func (ix *Index) Coordinates(k ColorKey) CoordinateSet {
	if e := ix.byKey[k]; e != nil {
		return slices.Clone(e.coords)
	}
	return nil
}

// ColorAt returns the color owning pixel c.
func (ix *Index) ColorAt(c Coordinate) (ColorKey, bool) {
	if e := ix.owner[c]; e != nil {
		return e.key, true
	}
	return ColorKey{}, false
}

// All iterates colors in index order. The yielded sets must not be modified.
func (ix *Index) All() iter.Seq2[ColorKey, CoordinateSet] {
	return func(yield func(ColorKey, CoordinateSet) bool) {
		for _, e := range ix.entries {
			if !yield(e.key, slices.Clip(e.coords)) {
				return
			}
		}
	}
}

// Bounds returns the smallest origin-anchored rectangle containing every indexed pixel.
func (ix *Index) Bounds() image.Rectangle {
	if len(ix.owner) == 0 {
		return image.Rectangle{}
	}

	var r image.Rectangle
	for c := range ix.owner {
		r.Max.X = max(r.Max.X, c.X+1)
		r.Max.Y = max(r.Max.Y, c.Y+1)
	}
	return r
}

// Equal reports whether both indexes map the same colors to the same pixel sequences.
func (ix *Index) Equal(other *Index) bool {
	if len(ix.entries) != len(other.entries) || len(ix.owner) != len(other.owner) {
		return false
	}
	for _, e := range ix.entries {
		o := other.byKey[e.key]
		if o == nil || !slices.Equal(e.coords, o.coords) {
			return false
		}
	}
	return true
}

// ReplaceColor moves every pixel of from to to. When to is already indexed the pixels
// of from are appended to it and from disappears, otherwise from is renamed in place.
// It returns false, leaving the index untouched, if from is not indexed.
func (ix *Index) ReplaceColor(from, to ColorKey) bool {
	src := ix.byKey[from]
	if src == nil {
		return false
	}
	if from == to {
		return true
	}

	delete(ix.byKey, from)
	dst := ix.byKey[to]
	if dst == nil {
		src.key = to
		ix.byKey[to] = src
		return true
	}

	for _, c := range src.coords {
		ix.owner[c] = dst
	}
	dst.coords = append(dst.coords, src.coords...)
	ix.entries = slices.DeleteFunc(ix.entries, func(e *entry) bool { return e == src })
	return true
}

// Remap replaces many colors at once: every indexed color found in mapping moves to its
// target, all replacements reading the index as it was before the call, so swaps work.
// Colors collapsing onto one target merge: a target that is indexed and not remapped
// itself keeps its position and its pixels come first, the rest follow in index order.
func (ix *Index) Remap(mapping map[ColorKey]ColorKey) {
	dest := func(k ColorKey) ColorKey {
		if d, ok := mapping[k]; ok {
			return d
		}
		return k
	}
	anchored := func(k ColorKey) bool {
		_, indexed := ix.byKey[k]
		return indexed && dest(k) == k
	}

	out := make([]*entry, 0, len(ix.entries))
	byKey := make(map[ColorKey]*entry, len(ix.entries))
	for _, e := range ix.entries {
		d := dest(e.key)
		if _, ok := byKey[d]; ok || (d != e.key && anchored(d)) {
			continue
		}
		n := &entry{key: d}
		byKey[d] = n
		out = append(out, n)
	}

	for _, e := range ix.entries {
		if dest(e.key) == e.key {
			n := byKey[e.key]
			n.coords = append(n.coords, e.coords...)
		}
	}
	for _, e := range ix.entries {
		if d := dest(e.key); d != e.key {
			n := byKey[d]
			n.coords = append(n.coords, e.coords...)
		}
	}

	for _, n := range out {
		for _, c := range n.coords {
			ix.owner[c] = n
		}
	}
	ix.entries, ix.byKey = out, byKey
}

// render calls set for every indexed pixel with its offset in the width x height grid
// and the position of its color. It fails unless the pixels tile the grid exactly.
func (ix *Index) render(width, height int, set func(offset, slot int)) error {
	if err := checkDimensions(width, height); err != nil {
		return err
	}

	covered := make([]bool, width*height)
	n := 0
	for slot, e := range ix.entries {
		for _, c := range e.coords {
			if c.X < 0 || c.Y < 0 || c.X >= width || c.Y >= height {
				return fmt.Errorf("%w: pixel %s of %s outside %dx%d", ErrDimensionMismatch,
					c, e.key, width, height)
			}
			i := c.Y*width + c.X
			if !covered[i] {
				covered[i] = true
				n++
			}
			set(i, slot)
		}
	}

	if n != len(covered) {
		missing := slices.Index(covered, false)
		return fmt.Errorf("%w: %d of %d pixels uncovered, first at %s", ErrIncompleteCoverage,
			len(covered)-n, len(covered), Coordinate{missing % width, missing / width})
	}
	return nil
}

// Reconstruct renders the index into a packed RGB buffer. Every pixel of the
// width x height grid must be covered and no indexed pixel may fall outside it.
func (ix *Index) Reconstruct(width, height int) ([]byte, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}

	pix := make([]byte, width*height*Channels)
	err := ix.render(width, height, func(offset, slot int) {
		k := ix.entries[slot].key
		i := offset * Channels
		pix[i], pix[i+1], pix[i+2] = k.R, k.G, k.B
	})
	if err != nil {
		return nil, err
	}
	return pix, nil
}

// ReconstructImage is Reconstruct returning an opaque *image.RGBA.
func (ix *Index) ReconstructImage(width, height int) (*image.RGBA, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	err := ix.render(width, height, func(offset, slot int) {
		k := ix.entries[slot].key
		p := img.Pix[offset*4 : offset*4+4 : offset*4+4]
		p[0], p[1], p[2], p[3] = k.R, k.G, k.B, 0xff
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// ReconstructPaletted is Reconstruct returning an *image.Paletted whose palette is the
// index colors in order. The index must hold at most 256 colors.
func (ix *Index) ReconstructPaletted(width, height int) (*image.Paletted, error) {
	if len(ix.entries) > 256 {
		return nil, fmt.Errorf("%d colors do not fit a paletted image", len(ix.entries))
	}
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}

	img := image.NewPaletted(image.Rect(0, 0, width, height), ix.Palette())
	err := ix.render(width, height, func(offset, slot int) {
		img.Pix[offset] = uint8(slot)
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}
