package posmap

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"pmapedit/pmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = pmap.ColorKey{R: 0xff}
	green = pmap.ColorKey{G: 0xff}
	blue  = pmap.ColorKey{B: 0xff}
)

func sample(t *testing.T) *pmap.Index {
	t.Helper()
	ix, err := pmap.Decode("3\n#FF0000 2 0;0 1;1\n#00FF00 1 1;0\n#0000FF 1 0;1")
	require.NoError(t, err)
	return ix
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(t)))
	require.True(t, json.Valid(buf.Bytes()))

	var got map[string]Color
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]Color{
		"1": {Hex: "#FF0000", Positions: []Position{{0, 0}, {1, 1}}},
		"2": {Hex: "#00FF00", Positions: []Position{{1, 0}}},
		"3": {Hex: "#0000FF", Positions: []Position{{0, 1}}},
	}, got)

	out := buf.String()
	assert.Less(t, strings.Index(out, `"1"`), strings.Index(out, `"2"`))
	assert.Less(t, strings.Index(out, `"2"`), strings.Index(out, `"3"`))
	assert.True(t, strings.HasPrefix(out, "{\n  \"1\": {\n    \"hex\""), out)
}

func TestWriteManyColors(t *testing.T) {
	keys := make([]byte, 0, 12*pmap.Channels)
	for i := range 12 {
		keys = append(keys, uint8(i), 0, 0)
	}
	ix, err := pmap.FromPixels(keys, 12, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ix))
	out := buf.String()
	for id := 2; id <= 12; id++ {
		assert.Less(t, strings.Index(out, strconv.Quote(strconv.Itoa(id-1))+":"),
			strings.Index(out, strconv.Quote(strconv.Itoa(id))+":"), "IDs follow index order")
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, pmap.New()))
	assert.Equal(t, "{}\n", buf.String())

	_, err := Read(&buf)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestReadWritten(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(t)))

	colors, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, map[int]pmap.ColorKey{1: red, 2: green, 3: blue}, colors)
}

func TestRead(t *testing.T) {
	colors, err := Read(strings.NewReader(`{"2": {"hex": "#0a0b0cff", "positions": []}, "1": {"hex": "#FFFFFF"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[int]pmap.ColorKey{1: {R: 0xff, G: 0xff, B: 0xff}, 2: {R: 0x0a, G: 0x0b, B: 0x0c}}, colors)

	for _, text := range []string{
		``,
		`[]`,
		`{}`,
		`{"one": {"hex": "#FF0000"}}`,
		`{"0": {"hex": "#FF0000"}}`,
		`{"1": {"hex": "#FF0000"}, "01": {"hex": "#00FF00"}}`,
		`{"1": {}}`,
		`{"1": {"hex": "FF0000"}}`,
		`{"1": {"hex": "#FF0000GG"}}`,
	} {
		_, err := Read(strings.NewReader(text))
		assert.ErrorIs(t, err, ErrInvalid, text)
	}
}

func TestMapping(t *testing.T) {
	ix := sample(t)

	mapping, skipped := Mapping(ix, map[int]pmap.ColorKey{1: blue, 2: green, 3: red, 9: red})
	assert.Equal(t, 1, skipped)
	assert.Equal(t, map[pmap.ColorKey]pmap.ColorKey{red: blue, blue: red}, mapping)

	ix.Remap(mapping)
	assert.Equal(t, "3\n#0000FF 2 0;0 1;1\n#00FF00 1 1;0\n#FF0000 1 0;1", pmap.Encode(ix))
}
