// Package pmap maps every color of an image to the exact pixels it occupies and
// serializes that mapping to the PMAP text format.
//
// PMAP format:
//
//	<N>
//	#<HEX6> <COUNT> <X;Y> <X;Y> ... <X;Y>
//	... (N color lines)
package pmap

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ColorKey is an opaque 24-bit RGB color.
type ColorKey struct {
	R, G, B uint8
}

var ColorKeyModel = color.ModelFunc(colorKeyConvert)

func colorKeyConvert(c color.Color) color.Color {
	if k, ok := c.(ColorKey); ok {
		return k
	}
	return ColorKeyOf(c)
}

// ColorKeyOf drops the alpha channel of c. Non-opaque colors are un-premultiplied first.
func ColorKeyOf(c color.Color) ColorKey {
	switch v := c.(type) {
	case ColorKey:
		return v
	case color.NRGBA:
		return ColorKey{v.R, v.G, v.B}
	case color.RGBA:
		if v.A == 0xff {
			return ColorKey{v.R, v.G, v.B}
		}
	}

	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return ColorKey{n.R, n.G, n.B}
}

func (k ColorKey) RGBA() (r, g, b, a uint32) {
	r = uint32(k.R)
	r |= r << 8
	g = uint32(k.G)
	g |= g << 8
	b = uint32(k.B)
	b |= b << 8
	return r, g, b, 0xffff
}

func (k ColorKey) String() string {
	return fmt.Sprintf("#%02X%02X%02X", k.R, k.G, k.B)
}

func (k ColorKey) appendText(b []byte) []byte {
	const digits = "0123456789ABCDEF"
	return append(b, '#',
		digits[k.R>>4], digits[k.R&0x0f],
		digits[k.G>>4], digits[k.G&0x0f],
		digits[k.B>>4], digits[k.B&0x0f])
}

// ParseColorKey accepts exactly '#' followed by six hex digits, in any case.
func ParseColorKey(s string) (ColorKey, error) {
	if len(s) != 7 || s[0] != '#' {
		return ColorKey{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}

	var v [3]uint8
	for i := range v {
		hi, ok1 := unhex(s[1+2*i])
		lo, ok2 := unhex(s[2+2*i])
		if !ok1 || !ok2 {
			return ColorKey{}, fmt.Errorf("invalid color %q: not a hex digit", s)
		}
		v[i] = hi<<4 | lo
	}

	return ColorKey{v[0], v[1], v[2]}, nil
}

func unhex(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// ParseColor is the lenient parser used for user input. Besides #RRGGBB it accepts
// #RGB, RRGGBB, #RRGGBBAA, rgb(r, g, b), rgba(r, g, b, a) and r,g,b[,a]. Alpha is
// parsed but discarded.
func ParseColor(s string) (ColorKey, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return ColorKey{}, fmt.Errorf("empty color")
	}

	if hex, isHex := strings.CutPrefix(text, "#"); isHex || isHexString(text) {
		switch len(hex) {
		case 3:
			k, err := ParseColorKey(fmt.Sprintf("#%c%c%c%c%c%c", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]))
			if err != nil {
				return ColorKey{}, fmt.Errorf("invalid color %q", s)
			}
			return k, nil
		case 6, 8:
			k, err := ParseColorKey("#" + hex[:6])
			if err != nil || !isHexString(hex) {
				return ColorKey{}, fmt.Errorf("invalid color %q", s)
			}
			return k, nil
		default:
			return ColorKey{}, fmt.Errorf("invalid color %q, should be #RGB, #RRGGBB or #RRGGBBAA", s)
		}
	}

	text = strings.TrimPrefix(text, "rgba(")
	text = strings.TrimPrefix(text, "rgb(")
	text = strings.TrimSuffix(text, ")")

	fields := strings.Split(text, ",")
	if len(fields) != 3 && len(fields) != 4 {
		return ColorKey{}, fmt.Errorf("invalid color %q: want 3 or 4 components", s)
	}

	var v [4]uint8
	for i, f := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return ColorKey{}, fmt.Errorf("invalid color component %d in %q: %w", i, s, err)
		}
		v[i] = uint8(n)
	}

	return ColorKey{v[0], v[1], v[2]}, nil
}

func isHexString(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if _, ok := unhex(s[i]); !ok {
			return false
		}
	}
	return true
}

// Coordinate is a pixel position relative to the image origin.
type Coordinate struct {
	X, Y int
}

func (c Coordinate) String() string {
	return strconv.Itoa(c.X) + ";" + strconv.Itoa(c.Y)
}

func (c Coordinate) appendText(b []byte) []byte {
	b = strconv.AppendInt(b, int64(c.X), 10)
	b = append(b, ';')
	return strconv.AppendInt(b, int64(c.Y), 10)
}

// CoordinateSet holds the unique pixels of one color, in the order they were added.
type CoordinateSet []Coordinate
