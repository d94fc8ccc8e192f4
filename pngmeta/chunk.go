// Package pngmeta stores PMAP documents in PNG text chunks.
//
// The document lives in an iTXt chunk with the keyword "PMAP". Embedding and stripping
// only add or drop that chunk: every other chunk, image data included, is copied byte
// for byte, so any PNG decoder still reads the image.
package pngmeta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// Chunk header: 4 bytes big-endian length + 4 bytes type. Trailer: 4 bytes CRC32.
const (
	chunkHeaderSize  = 8
	chunkTrailerSize = 4
	maxChunkLength   = math.MaxInt32
)

var (
	ErrNotPNG         = errors.New("pngmeta: not a PNG file")
	ErrTruncated      = errors.New("pngmeta: truncated PNG")
	ErrMalformedChunk = errors.New("pngmeta: malformed chunk")
	ErrChecksum       = errors.New("pngmeta: chunk checksum mismatch")
	ErrTextTooLarge   = errors.New("pngmeta: text chunk too large")
)

// chunk is a zero-copy view into the PNG stream.
type chunk struct {
	typ  string
	data []byte // payload
	raw  []byte // length + type + payload + CRC
}

func (c chunk) checksumOK() bool {
	want := binary.BigEndian.Uint32(c.raw[len(c.raw)-chunkTrailerSize:])
	return crc32.ChecksumIEEE(c.raw[4:len(c.raw)-chunkTrailerSize]) == want
}

// readChunks splits a PNG stream into its chunks, IHDR first and IEND last. Bytes after
// IEND are returned as trailer.
func readChunks(b []byte) (chunks []chunk, trailer []byte, err error) {
	if len(b) < len(pngSignature) || string(b[:len(pngSignature)]) != pngSignature {
		return nil, nil, ErrNotPNG
	}

	off := len(pngSignature)
	for {
		if len(b)-off < chunkHeaderSize+chunkTrailerSize {
			return nil, nil, fmt.Errorf("%w: chunk #%d header at offset %d", ErrTruncated, len(chunks), off)
		}

		length := binary.BigEndian.Uint32(b[off : off+4])
		typ := b[off+4 : off+8]
		if length > maxChunkLength {
			return nil, nil, fmt.Errorf("%w: chunk #%d length %d", ErrMalformedChunk, len(chunks), length)
		}
		if !validType(typ) {
			return nil, nil, fmt.Errorf("%w: chunk #%d type %q", ErrMalformedChunk, len(chunks), typ)
		}

		end := off + chunkHeaderSize + int(length) + chunkTrailerSize
		if end > len(b) {
			return nil, nil, fmt.Errorf("%w: chunk %s needs %d bytes, have %d", ErrTruncated, typ,
				end-off, len(b)-off)
		}

		c := chunk{
			typ:  string(typ),
			data: b[off+chunkHeaderSize : end-chunkTrailerSize],
			raw:  b[off:end],
		}
		if len(chunks) == 0 && c.typ != "IHDR" {
			return nil, nil, fmt.Errorf("%w: first chunk is %s, want IHDR", ErrMalformedChunk, c.typ)
		}

		chunks = append(chunks, c)
		off = end
		if c.typ == "IEND" {
			return chunks, b[off:], nil
		}
	}
}

func validType(typ []byte) bool {
	for _, c := range typ {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

func appendChunk(b []byte, typ string, data []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	start := len(b)
	b = append(b, typ...)
	b = append(b, data...)
	return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(b[start:]))
}
