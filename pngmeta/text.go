package pngmeta

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
)

// Keyword names the text chunk holding the PMAP document.
const Keyword = "PMAP"

// MaxTextSize bounds the inflated size of a compressed PMAP chunk.
const MaxTextSize = 256 << 20

type options struct {
	compress bool
	level    int
}

type Option func(*options)

// WithCompression stores the document zlib-compressed at the given level
// (zlib.BestSpeed ... zlib.BestCompression, or zlib.DefaultCompression).
func WithCompression(level int) Option {
	return func(o *options) {
		o.compress = true
		o.level = level
	}
}

// Embed returns a copy of png carrying text in an iTXt chunk keyed PMAP, placed before
// the image data. Existing PMAP chunks are dropped; all other chunks are kept as is.
func Embed(png []byte, text string, opts ...Option) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("pngmeta: text is not valid UTF-8")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	chunks, trailer, err := readChunks(png)
	if err != nil {
		return nil, err
	}

	payload, err := itxtPayload(text, o)
	if err != nil {
		return nil, err
	}
	if len(payload) > maxChunkLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTextTooLarge, len(payload))
	}

	out := make([]byte, 0, len(png)+len(payload)+chunkHeaderSize+chunkTrailerSize)
	out = append(out, pngSignature...)
	inserted := false
	for _, c := range chunks {
		if isPMAP(c) {
			continue
		}
		if !inserted && (c.typ == "IDAT" || c.typ == "IEND") {
			out = appendChunk(out, "iTXt", payload)
			inserted = true
		}
		out = append(out, c.raw...)
	}

	return append(out, trailer...), nil
}

// Extract returns the PMAP document stored in png. A PNG without one yields ok == false
// and no error; errors report a malformed PNG or a damaged PMAP chunk.
func Extract(png []byte) (text string, ok bool, err error) {
	chunks, _, err := readChunks(png)
	if err != nil {
		return "", false, err
	}

	for _, c := range chunks {
		if !isPMAP(c) {
			continue
		}
		if !c.checksumOK() {
			return "", false, fmt.Errorf("%w: %s %s", ErrChecksum, c.typ, Keyword)
		}
		text, err := decodeText(c)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	}

	return "", false, nil
}

// Strip returns a copy of png without PMAP chunks.
func Strip(png []byte) ([]byte, error) {
	chunks, trailer, err := readChunks(png)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(png))
	out = append(out, pngSignature...)
	for _, c := range chunks {
		if !isPMAP(c) {
			out = append(out, c.raw...)
		}
	}
	return append(out, trailer...), nil
}

func isPMAP(c chunk) bool {
	switch c.typ {
	case "tEXt", "zTXt", "iTXt":
		kw, _, found := bytes.Cut(c.data, []byte{0})
		return found && string(kw) == Keyword
	}
	return false
}

// iTXt: keyword 0 compression-flag compression-method language 0 translated-keyword 0 text
func itxtPayload(text string, o options) ([]byte, error) {
	b := make([]byte, 0, len(Keyword)+5+len(text))
	b = append(b, Keyword...)
	b = append(b, 0)
	if !o.compress {
		b = append(b, 0, 0, 0, 0)
		return append(b, text...), nil
	}

	b = append(b, 1, 0, 0, 0)
	buf := bytes.NewBuffer(b)
	zw, err := zlib.NewWriterLevel(buf, o.level)
	if err != nil {
		return nil, fmt.Errorf("could not create zlib writer: %w", err)
	}
	if _, err = io.WriteString(zw, text); err != nil {
		return nil, fmt.Errorf("could not compress text: %w", err)
	}
	if err = zw.Close(); err != nil {
		return nil, fmt.Errorf("could not compress text: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeText(c chunk) (string, error) {
	_, rest, _ := bytes.Cut(c.data, []byte{0})

	switch c.typ {
	case "tEXt":
		return latin1(rest)

	case "zTXt":
		if len(rest) < 1 || rest[0] != 0 {
			return "", fmt.Errorf("%w: zTXt: unsupported compression method", ErrMalformedChunk)
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return "", err
		}
		return latin1(text)

	case "iTXt":
		if len(rest) < 2 {
			return "", fmt.Errorf("%w: iTXt: missing compression fields", ErrMalformedChunk)
		}
		compressed, method := rest[0], rest[1]
		_, afterLang, ok1 := bytes.Cut(rest[2:], []byte{0})
		_, text, ok2 := bytes.Cut(afterLang, []byte{0})
		if !ok1 || !ok2 {
			return "", fmt.Errorf("%w: iTXt: missing language or translated keyword", ErrMalformedChunk)
		}

		switch {
		case compressed == 0:
		case compressed == 1 && method == 0:
			var err error
			if text, err = inflate(text); err != nil {
				return "", err
			}
		default:
			return "", fmt.Errorf("%w: iTXt: unsupported compression %d/%d", ErrMalformedChunk, compressed, method)
		}
		if !utf8.Valid(text) {
			return "", fmt.Errorf("%w: iTXt: text is not valid UTF-8", ErrMalformedChunk)
		}
		return string(text), nil
	}

	return "", fmt.Errorf("%w: %s is not a text chunk", ErrMalformedChunk, c.typ)
}

// latin1 converts tEXt/zTXt text, which PNG defines as ISO 8859-1, to UTF-8.
func latin1(b []byte) (string, error) {
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedChunk, err)
	}
	return string(text), nil
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: could not open zlib stream: %w", ErrMalformedChunk, err)
	}
	defer zr.Close()

	text, err := io.ReadAll(io.LimitReader(zr, MaxTextSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: could not inflate text: %w", ErrMalformedChunk, err)
	}
	if len(text) > MaxTextSize {
		return nil, fmt.Errorf("%w: inflated text exceeds %d bytes", ErrTextTooLarge, MaxTextSize)
	}
	return text, nil
}
