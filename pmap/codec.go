package pmap

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// AppendText appends the PMAP encoding of ix to b. Colors are written in index order
// and pixels in set order, so the output is deterministic.
func (ix *Index) AppendText(b []byte) ([]byte, error) {
	b = strconv.AppendInt(b, int64(len(ix.entries)), 10)
	for _, e := range ix.entries {
		b = append(b, '\n')
		b = e.key.appendText(b)
		b = append(b, ' ')
		b = strconv.AppendInt(b, int64(len(e.coords)), 10)
		for _, c := range e.coords {
			b = append(b, ' ')
			b = c.appendText(b)
		}
	}
	return b, nil
}

func (ix *Index) MarshalText() ([]byte, error) {
	return ix.AppendText(nil)
}

// UnmarshalText replaces the contents of ix with the decoded document. On error ix is
// left unchanged.
func (ix *Index) UnmarshalText(text []byte) error {
	decoded, err := Decode(string(text))
	if err != nil {
		return err
	}
	*ix = *decoded
	return nil
}

// Encode returns the PMAP text of ix.
func Encode(ix *Index) string {
	b, _ := ix.AppendText(nil)
	return string(b)
}

// WriteTo writes the PMAP text of ix to w.
func WriteTo(w io.Writer, ix *Index) (int64, error) {
	b, _ := ix.AppendText(nil)
	n, err := w.Write(b)
	if err != nil {
		return int64(n), fmt.Errorf("could not write pmap: %w", err)
	} else if n != len(b) {
		return int64(n), fmt.Errorf("wrote only %d/%d bytes", n, len(b))
	}
	return int64(n), nil
}

// ReadFrom reads a whole PMAP document from r and decodes it.
func ReadFrom(r io.Reader) (*Index, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read pmap: %w", err)
	}
	return Decode(string(text))
}

// Decode parses and validates a PMAP document. Nothing is built until the whole
// document has been validated; any violation yields a *FormatError and no index.
func Decode(text string) (*Index, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, formatErr(InvalidColorCount, 1, "empty document")
	}

	n, ok := parseDecimal(lines[0])
	if !ok || n == 0 {
		return nil, formatErr(InvalidColorCount, 1, "want a positive integer, got %q", lines[0])
	}
	if found := len(lines) - 1; found != n {
		return nil, formatErr(ColorCountMismatch, 1, "header declares %d colors, found %d color lines", n, found)
	}

	parsed := make([]entry, 0, n)
	keyLines := make(map[ColorKey]int, n)
	claimed := make(map[Coordinate]int)
	for i, line := range lines[1:] {
		lineNo := i + 2

		hexText, rest, _ := strings.Cut(line, " ")
		key, err := ParseColorKey(hexText)
		if err != nil {
			return nil, formatErr(InvalidHexColor, lineNo, "%q", hexText)
		}
		countText, coordText, hasCoords := strings.Cut(rest, " ")
		count, ok := parseDecimal(countText)
		if !ok {
			return nil, formatErr(InvalidPixelCount, lineNo, "%q", countText)
		}

		var tokens []string
		if hasCoords {
			tokens = strings.Split(coordText, " ")
		}
		if len(tokens) != count {
			return nil, formatErr(PixelCountMismatch, lineNo, "%s declares %d pixels, found %d", key, count, len(tokens))
		}

		coords := make(CoordinateSet, 0, len(tokens))
		for _, tok := range tokens {
			c, ok := parseCoordinate(tok)
			if !ok {
				return nil, formatErr(InvalidCoordinate, lineNo, "%q", tok)
			}
			if owner, seen := claimed[c]; seen {
				if owner == len(parsed) {
					return nil, formatErr(DuplicateCoordinate, lineNo, "%s listed twice for %s", c, key)
				}
				return nil, formatErr(ConflictingCoordinate, lineNo, "%s claimed by %s and %s",
					c, parsed[owner].key, key)
			}
			claimed[c] = len(parsed)
			coords = append(coords, c)
		}

		if prev, dup := keyLines[key]; dup {
			return nil, formatErr(DuplicateColorKey, lineNo, "%s already defined at line %d", key, prev)
		}
		keyLines[key] = lineNo
		parsed = append(parsed, entry{key: key, coords: coords})
	}

	ix := newIndex(len(parsed), len(claimed))
	for i := range parsed {
		e := &parsed[i]
		ix.entries = append(ix.entries, e)
		ix.byKey[e.key] = e
		for _, c := range e.coords {
			ix.owner[c] = e
		}
	}
	return ix, nil
}

// splitLines accepts CR, LF and CRLF terminators and drops trailing blank lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// parseDecimal accepts only ASCII digits, no sign and no spaces.
func parseDecimal(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseCoordinate(tok string) (Coordinate, bool) {
	xs, ys, ok := strings.Cut(tok, ";")
	if !ok {
		return Coordinate{}, false
	}
	x, okX := parseDecimal(xs)
	y, okY := parseDecimal(ys)
	if !okX || !okY || x >= MaxPixels || y >= MaxPixels {
		return Coordinate{}, false
	}
	return Coordinate{x, y}, true
}
