package pmap

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = ColorKey{0xff, 0x00, 0x00}
	green = ColorKey{0x00, 0xff, 0x00}
	blue  = ColorKey{0x00, 0x00, 0xff}
)

func rgb(keys ...ColorKey) []byte {
	pix := make([]byte, 0, len(keys)*Channels)
	for _, k := range keys {
		pix = append(pix, k.R, k.G, k.B)
	}
	return pix
}

func randomPixels(r *rand.Rand, width, height, colors int) []byte {
	pal := make([]ColorKey, colors)
	for i := range pal {
		pal[i] = ColorKey{uint8(r.IntN(256)), uint8(r.IntN(256)), uint8(r.IntN(256))}
	}
	keys := make([]ColorKey, width*height)
	for i := range keys {
		keys[i] = pal[r.IntN(colors)]
	}
	return rgb(keys...)
}

// requirePartition checks that every pixel of the grid belongs to exactly one color.
func requirePartition(t *testing.T, ix *Index, width, height int) {
	t.Helper()

	seen := make(map[Coordinate]ColorKey)
	for k, set := range ix.All() {
		require.Equal(t, len(set), ix.PixelCount(k))
		for _, c := range set {
			prev, dup := seen[c]
			require.Falsef(t, dup, "%s in both %s and %s", c, prev, k)
			seen[c] = k

			owner, ok := ix.ColorAt(c)
			require.True(t, ok)
			require.Equal(t, k, owner)
		}
	}

	require.Len(t, seen, width*height)
	for y := range height {
		for x := range width {
			require.Contains(t, seen, Coordinate{x, y})
		}
	}
}

func TestFromPixelsMinimal(t *testing.T) {
	ix, err := FromPixels(rgb(red, green), 2, 1)
	require.NoError(t, err)

	assert.Equal(t, []ColorKey{red, green}, ix.Colors())
	assert.Equal(t, CoordinateSet{{0, 0}}, ix.Coordinates(red))
	assert.Equal(t, CoordinateSet{{1, 0}}, ix.Coordinates(green))
	assert.Equal(t, 1, ix.PixelCount(red))
	assert.Equal(t, 0, ix.PixelCount(blue))
	requirePartition(t, ix, 2, 1)
}

func TestFromPixelsScanOrder(t *testing.T) {
	ix, err := FromPixels(rgb(
		red, green,
		green, red,
		blue, red,
	), 2, 3)
	require.NoError(t, err)

	assert.Equal(t, []ColorKey{red, green, blue}, ix.Colors())
	assert.Equal(t, CoordinateSet{{0, 0}, {1, 1}, {1, 2}}, ix.Coordinates(red))
	assert.Equal(t, CoordinateSet{{1, 0}, {0, 1}}, ix.Coordinates(green))
	assert.Equal(t, image.Rect(0, 0, 2, 3), ix.Bounds())
	requirePartition(t, ix, 2, 3)
}

func TestFromPixelsDimensionMismatch(t *testing.T) {
	tests := []struct {
		name          string
		pix           []byte
		width, height int
	}{
		{"short buffer", rgb(red), 2, 1},
		{"long buffer", rgb(red, green, blue), 2, 1},
		{"partial pixel", []byte{1, 2, 3, 4}, 1, 1},
		{"zero width", nil, 0, 1},
		{"negative height", nil, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := FromPixels(tt.pix, tt.width, tt.height)
			require.ErrorIs(t, err, ErrDimensionMismatch)
			require.Nil(t, ix)
		})
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 20, 12, 21))
	img.Set(10, 20, color.NRGBA{0xff, 0, 0, 0x80})
	img.Set(11, 20, color.NRGBA{0, 0xff, 0, 0xff})

	ix := FromImage(img)
	assert.Equal(t, []ColorKey{red, green}, ix.Colors())
	assert.Equal(t, CoordinateSet{{0, 0}}, ix.Coordinates(red))
	assert.Equal(t, CoordinateSet{{1, 0}}, ix.Coordinates(green))
}

func TestFromImagePaletted(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 3, 1), color.Palette{blue, red})
	img.SetColorIndex(0, 0, 1)
	img.SetColorIndex(1, 0, 0)
	img.SetColorIndex(2, 0, 1)

	ix := FromImage(img)
	assert.Equal(t, []ColorKey{red, blue}, ix.Colors())
	assert.Equal(t, CoordinateSet{{0, 0}, {2, 0}}, ix.Coordinates(red))
}

func TestReplaceColorMerge(t *testing.T) {
	ix, err := FromPixels(rgb(red, red, blue), 3, 1)
	require.NoError(t, err)

	require.True(t, ix.ReplaceColor(red, blue))
	assert.Equal(t, []ColorKey{blue}, ix.Colors())
	assert.Equal(t, CoordinateSet{{2, 0}, {0, 0}, {1, 0}}, ix.Coordinates(blue))
	assert.Equal(t, 3, ix.PixelCount(blue))
	assert.Equal(t, 0, ix.PixelCount(red))
	requirePartition(t, ix, 3, 1)
}

func TestReplaceColorRename(t *testing.T) {
	ix, err := FromPixels(rgb(red, green, red), 3, 1)
	require.NoError(t, err)

	require.True(t, ix.ReplaceColor(red, blue))
	assert.Equal(t, []ColorKey{blue, green}, ix.Colors())
	assert.Equal(t, CoordinateSet{{0, 0}, {2, 0}}, ix.Coordinates(blue))
	requirePartition(t, ix, 3, 1)
}

func TestReplaceColorAbsent(t *testing.T) {
	ix, err := FromPixels(rgb(red, green), 2, 1)
	require.NoError(t, err)
	before := Encode(ix)

	assert.False(t, ix.ReplaceColor(blue, red))
	assert.True(t, ix.ReplaceColor(red, red))
	assert.Equal(t, before, Encode(ix))
}

func TestRemapSwap(t *testing.T) {
	ix, err := FromPixels(rgb(red, blue, red), 3, 1)
	require.NoError(t, err)

	ix.Remap(map[ColorKey]ColorKey{red: blue, blue: red})
	assert.Equal(t, []ColorKey{blue, red}, ix.Colors())
	assert.Equal(t, CoordinateSet{{0, 0}, {2, 0}}, ix.Coordinates(blue))
	assert.Equal(t, CoordinateSet{{1, 0}}, ix.Coordinates(red))
	requirePartition(t, ix, 3, 1)
}

func TestRemapMatchesReplaceColor(t *testing.T) {
	pix := rgb(red, red, green, blue, green)

	replaced, err := FromPixels(pix, 5, 1)
	require.NoError(t, err)
	replaced.ReplaceColor(green, red)

	remapped, err := FromPixels(pix, 5, 1)
	require.NoError(t, err)
	remapped.Remap(map[ColorKey]ColorKey{green: red})

	assert.Equal(t, Encode(replaced), Encode(remapped))
}

func TestRemapCollapse(t *testing.T) {
	ix, err := FromPixels(rgb(red, green, blue, green), 4, 1)
	require.NoError(t, err)

	white := ColorKey{0xff, 0xff, 0xff}
	ix.Remap(map[ColorKey]ColorKey{red: white, blue: white, ColorKey{1, 2, 3}: red})
	assert.Equal(t, []ColorKey{white, green}, ix.Colors())
	assert.Equal(t, CoordinateSet{{0, 0}, {2, 0}}, ix.Coordinates(white))
	requirePartition(t, ix, 4, 1)
}

func TestReconstruct(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, dim := range [][2]int{{1, 1}, {7, 3}, {16, 16}, {33, 5}} {
		pix := randomPixels(r, dim[0], dim[1], 5)
		ix, err := FromPixels(pix, dim[0], dim[1])
		require.NoError(t, err)

		got, err := ix.Reconstruct(dim[0], dim[1])
		require.NoError(t, err)
		require.Equal(t, pix, got)
	}
}

func TestReconstructIncompleteCoverage(t *testing.T) {
	ix, err := Decode("1\n#FF0000 2 0;0 1;1")
	require.NoError(t, err)

	pix, err := ix.Reconstruct(2, 2)
	require.ErrorIs(t, err, ErrIncompleteCoverage)
	require.Nil(t, pix)
}

func TestReconstructOutOfBounds(t *testing.T) {
	ix, err := FromPixels(rgb(red, green), 2, 1)
	require.NoError(t, err)

	_, err = ix.Reconstruct(1, 1)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = ix.Reconstruct(0, 1)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestReconstructTooLarge(t *testing.T) {
	ix, err := Decode("1\n#000000 1 99999;99999")
	require.NoError(t, err)
	b := ix.Bounds()
	assert.Equal(t, image.Rect(0, 0, 100000, 100000), b)

	_, err = ix.Reconstruct(b.Dx(), b.Dy())
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = ix.ReconstructImage(b.Dx(), b.Dy())
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = ix.ReconstructPaletted(b.Dx(), b.Dy())
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = ix.Reconstruct(MaxPixels, 2)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = FromPixels(nil, MaxPixels, 2)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestReconstructPaletted(t *testing.T) {
	ix, err := FromPixels(rgb(red, green, blue, red), 2, 2)
	require.NoError(t, err)

	img, err := ix.ReconstructPaletted(2, 2)
	require.NoError(t, err)
	assert.Equal(t, color.Palette{red, green, blue}, img.Palette)
	assert.Equal(t, []uint8{0, 1, 2, 0}, img.Pix)
	assert.True(t, FromImage(img).Equal(ix))

	_, err = ix.ReconstructPaletted(2, 1)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	partial, err := Decode("1\n#FF0000 2 0;0 1;1")
	require.NoError(t, err)
	_, err = partial.ReconstructPaletted(2, 2)
	require.ErrorIs(t, err, ErrIncompleteCoverage)

	many := make([]ColorKey, 257)
	for i := range many {
		many[i] = ColorKey{uint8(i), uint8(i >> 8), 0}
	}
	big, err := FromPixels(rgb(many...), 257, 1)
	require.NoError(t, err)
	_, err = big.ReconstructPaletted(257, 1)
	require.Error(t, err)
}

func TestReconstructImage(t *testing.T) {
	ix, err := FromPixels(rgb(red, green, blue, red), 2, 2)
	require.NoError(t, err)

	img, err := ix.ReconstructImage(2, 2)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0xff, 0xff}, img.RGBAAt(0, 1))
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.True(t, FromImage(img).Equal(ix))
}

func TestQueries(t *testing.T) {
	ix, err := FromPixels(rgb(red, green, red, blue), 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, color.Palette{red, green, blue}, ix.Palette())
	assert.Equal(t, image.Rect(0, 0, 2, 2), ix.Bounds())
	assert.Equal(t, image.Rectangle{}, New().Bounds())

	k, ok := ix.ColorAt(Coordinate{0, 1})
	assert.True(t, ok)
	assert.Equal(t, red, k)
	_, ok = ix.ColorAt(Coordinate{5, 5})
	assert.False(t, ok)

	coords := ix.Coordinates(red)
	coords[0] = Coordinate{9, 9}
	assert.Equal(t, CoordinateSet{{0, 0}, {0, 1}}, ix.Coordinates(red), "Coordinates returns a copy")
	assert.Nil(t, ix.Coordinates(ColorKey{1, 2, 3}))

	assert.True(t, ix.Has(blue))
	assert.False(t, ix.Has(ColorKey{1, 2, 3}))
	empty, err := Decode("2\n#FF0000 0\n#00FF00 1 0;0")
	require.NoError(t, err)
	assert.True(t, empty.Has(red))
	assert.Zero(t, empty.PixelCount(red))

	other, err := FromPixels(rgb(red, green, red, blue), 2, 2)
	require.NoError(t, err)
	assert.True(t, ix.Equal(other))
	other.ReplaceColor(blue, green)
	assert.False(t, ix.Equal(other))
}
