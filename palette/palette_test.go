package palette

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"pmapedit/pmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	black = pmap.ColorKey{}
	white = pmap.ColorKey{R: 0xff, G: 0xff, B: 0xff}
	red   = pmap.ColorKey{R: 0xff}
	green = pmap.ColorKey{G: 0xff}
	blue  = pmap.ColorKey{B: 0xff}
)

func TestPALRoundTrip(t *testing.T) {
	keys := []pmap.ColorKey{red, green, blue, {R: 0x12, G: 0x34, B: 0x56}}

	var buf bytes.Buffer
	n, err := WritePAL(&buf, keys)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, 12+8+4+4*len(keys), buf.Len())
	assert.Equal(t, "RIFF", buf.String()[:4])
	assert.Equal(t, uint32(buf.Len()-8), binary.LittleEndian.Uint32(buf.Bytes()[4:8]))

	got, err := ReadPAL(&buf)
	require.NoError(t, err)
	assert.Equal(t, keys, got)
}

func TestPALEmpty(t *testing.T) {
	var buf bytes.Buffer
	_, err := WritePAL(&buf, nil)
	require.NoError(t, err)

	got, err := ReadPAL(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPALTooManyColors(t *testing.T) {
	_, err := WritePAL(&bytes.Buffer{}, make([]pmap.ColorKey, MaxPALColors+1))
	require.ErrorIs(t, err, ErrTooManyColors)
}

func TestReadPALErrors(t *testing.T) {
	var good bytes.Buffer
	_, err := WritePAL(&good, []pmap.ColorKey{red, green})
	require.NoError(t, err)

	wrongForm := bytes.Clone(good.Bytes())
	copy(wrongForm[8:12], "WAVE")

	wrongVersion := bytes.Clone(good.Bytes())
	wrongVersion[21] = 0x04

	truncated := bytes.Clone(good.Bytes())
	binary.LittleEndian.PutUint16(truncated[22:24], 3)

	for name, data := range map[string][]byte{
		"not riff":      []byte("definitely not a palette"),
		"wrong form":    wrongForm,
		"wrong version": wrongVersion,
		"truncated":     truncated,
	} {
		_, err := ReadPAL(bytes.NewReader(data))
		assert.Error(t, err, name)
	}
}

func TestStrip(t *testing.T) {
	keys := []pmap.ColorKey{red, green, red, blue}

	img := StripImage(keys)
	assert.Equal(t, image.Rect(0, 0, 4, 1), img.Bounds())
	assert.Equal(t, color.NRGBA{0, 0xff, 0, 0xff}, img.NRGBAAt(1, 0))
	assert.Equal(t, keys, FromStrip(img))

	tall := image.NewRGBA(image.Rect(5, 5, 7, 8))
	tall.Set(5, 5, color.RGBA{0, 0, 0xff, 0xff})
	tall.Set(6, 5, color.RGBA{0xff, 0xff, 0xff, 0xff})
	tall.Set(5, 6, color.RGBA{0xff, 0, 0, 0xff})
	assert.Equal(t, []pmap.ColorKey{blue, white}, FromStrip(tall))

	assert.Nil(t, FromStrip(image.NewRGBA(image.Rectangle{})))
}

func TestMapping(t *testing.T) {
	m, err := Mapping([]pmap.ColorKey{red, green, blue}, []pmap.ColorKey{blue, green, red})
	require.NoError(t, err)
	assert.Equal(t, map[pmap.ColorKey]pmap.ColorKey{red: blue, blue: red}, m)

	_, err = Mapping([]pmap.ColorKey{red}, []pmap.ColorKey{red, green})
	require.ErrorContains(t, err, "palette size mismatch: expected 1, got 2")
}

func TestNearest(t *testing.T) {
	keys := []pmap.ColorKey{black, white, red, green, blue}

	assert.Equal(t, 2, Nearest(keys, red))
	assert.Equal(t, 2, Nearest(keys, pmap.ColorKey{R: 0xe0, G: 0x10, B: 0x10}))
	assert.Equal(t, 0, Nearest(keys, pmap.ColorKey{R: 0x10, G: 0x10, B: 0x10}))
	assert.Equal(t, 1, Nearest(keys, pmap.ColorKey{R: 0xf0, G: 0xf0, B: 0xf0}))
	assert.Equal(t, 4, Nearest(keys, pmap.ColorKey{R: 0x10, G: 0x10, B: 0xc0}))
	assert.Equal(t, -1, Nearest(nil, red))
}

func TestSorted(t *testing.T) {
	keys := []pmap.ColorKey{white, blue, black, red, green}

	same, err := Sorted(keys, ByIndex)
	require.NoError(t, err)
	assert.Equal(t, keys, same)

	byL, err := Sorted(keys, ByLightness)
	require.NoError(t, err)
	assert.Equal(t, black, byL[0])
	assert.Equal(t, white, byL[len(byL)-1])

	byH, err := Sorted(keys, ByHue)
	require.NoError(t, err)
	assert.Equal(t, []pmap.ColorKey{black, white}, byH[:2])
	assert.ElementsMatch(t, keys, byH)

	_, err = Sorted(keys, "random")
	require.Error(t, err)
}
