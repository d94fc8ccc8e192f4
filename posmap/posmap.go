// Package posmap reads and writes positioned maps: JSON objects keyed by color ID, where
// ID n is the n-th color of an index, holding the color and its pixel positions.
//
//	{
//	  "1": {"hex": "#FF0000", "positions": [{"x": 0, "y": 0}]}
//	}
package posmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"pmapedit/pmap"
)

// ErrInvalid reports a positioned map that cannot be applied.
var ErrInvalid = errors.New("posmap: invalid positioned map")

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Color struct {
	Hex       string     `json:"hex"`
	Positions []Position `json:"positions"`
}

// Write encodes ix as a positioned map with IDs in index order.
func Write(w io.Writer, ix *pmap.Index) error {
	var buf bytes.Buffer
	buf.WriteByte('{')

	id := 0
	for key, coords := range ix.All() {
		c := Color{Hex: key.String(), Positions: make([]Position, len(coords))}
		for i, xy := range coords {
			c.Positions[i] = Position{xy.X, xy.Y}
		}
		data, err := json.MarshalIndent(c, "  ", "  ")
		if err != nil {
			return fmt.Errorf("could not encode %s: %w", key, err)
		}

		if id > 0 {
			buf.WriteByte(',')
		}
		id++
		fmt.Fprintf(&buf, "\n  %q: %s", strconv.Itoa(id), data)
	}
	if id > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("could not write positioned map: %w", err)
	}
	return nil
}

// Read decodes the colors of a positioned map by ID. Positions are not read back: the
// pixels of a color come from the index the map is applied to.
func Read(r io.Reader) (map[int]pmap.ColorKey, error) {
	var raw map[string]Color
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no colors", ErrInvalid)
	}

	colors := make(map[int]pmap.ColorKey, len(raw))
	for idText, c := range raw {
		id, err := strconv.Atoi(idText)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("%w: color ID %q", ErrInvalid, idText)
		}
		if _, dup := colors[id]; dup {
			return nil, fmt.Errorf("%w: color ID %d given twice", ErrInvalid, id)
		}
		key, err := parseHex(c.Hex)
		if err != nil {
			return nil, fmt.Errorf("%w: color %q: %w", ErrInvalid, idText, err)
		}
		colors[id] = key
	}
	return colors, nil
}

// parseHex accepts #RRGGBB and #RRGGBBAA. Alpha is dropped.
func parseHex(s string) (pmap.ColorKey, error) {
	if len(s) == 9 {
		if _, err := strconv.ParseUint(s[7:], 16, 8); err != nil {
			return pmap.ColorKey{}, fmt.Errorf("invalid alpha in %q", s)
		}
		s = s[:7]
	}
	return pmap.ParseColorKey(s)
}

// Mapping pairs the colors of ix with the colors of a positioned map by ID. IDs past the
// end of the index are counted as skipped.
func Mapping(ix *pmap.Index, colors map[int]pmap.ColorKey) (mapping map[pmap.ColorKey]pmap.ColorKey, skipped int) {
	keys := ix.Colors()
	mapping = make(map[pmap.ColorKey]pmap.ColorKey, len(colors))
	for id, to := range colors {
		if id > len(keys) {
			skipped++
			continue
		}
		if from := keys[id-1]; from != to {
			mapping[from] = to
		}
	}
	return mapping, skipped
}
