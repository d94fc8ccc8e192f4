package pmap

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch reports a pixel buffer or coordinate that disagrees with the
	// supplied width and height.
	ErrDimensionMismatch = errors.New("pmap: dimension mismatch")
	// ErrIncompleteCoverage reports an index that leaves pixels of the requested image
	// uncovered.
	ErrIncompleteCoverage = errors.New("pmap: incomplete coverage")
)

// FormatKind identifies which validation rule a PMAP document broke.
type FormatKind int

const (
	InvalidColorCount FormatKind = iota + 1
	ColorCountMismatch
	InvalidHexColor
	InvalidPixelCount
	PixelCountMismatch
	InvalidCoordinate
	DuplicateCoordinate
	ConflictingCoordinate
	DuplicateColorKey
)

var formatKindNames = map[FormatKind]string{
	InvalidColorCount:     "invalid color count",
	ColorCountMismatch:    "color count mismatch",
	InvalidHexColor:       "invalid hex color",
	InvalidPixelCount:     "invalid pixel count",
	PixelCountMismatch:    "pixel count mismatch",
	InvalidCoordinate:     "invalid coordinate",
	DuplicateCoordinate:   "duplicate coordinate",
	ConflictingCoordinate: "conflicting coordinate",
	DuplicateColorKey:     "duplicate color key",
}

func (k FormatKind) String() string {
	if s, ok := formatKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FormatKind(%d)", int(k))
}

// A FormatError reports that the input is not a valid PMAP document.
// Line is 1-based; 0 means the error is not tied to a line.
type FormatError struct {
	Kind FormatKind
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	s := "pmap: invalid format: " + e.Kind.String()
	if e.Line > 0 {
		s = fmt.Sprintf("%s at line %d", s, e.Line)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Is matches any *FormatError of the same kind, so the Err* kind values below can be
// used with errors.Is.
func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidColorCount     = &FormatError{Kind: InvalidColorCount}
	ErrColorCountMismatch    = &FormatError{Kind: ColorCountMismatch}
	ErrInvalidHexColor       = &FormatError{Kind: InvalidHexColor}
	ErrInvalidPixelCount     = &FormatError{Kind: InvalidPixelCount}
	ErrPixelCountMismatch    = &FormatError{Kind: PixelCountMismatch}
	ErrInvalidCoordinate     = &FormatError{Kind: InvalidCoordinate}
	ErrDuplicateCoordinate   = &FormatError{Kind: DuplicateCoordinate}
	ErrConflictingCoordinate = &FormatError{Kind: ConflictingCoordinate}
	ErrDuplicateColorKey     = &FormatError{Kind: DuplicateColorKey}
)

func formatErr(kind FormatKind, line int, format string, args ...any) *FormatError {
	return &FormatError{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}
