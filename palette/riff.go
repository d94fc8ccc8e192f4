package palette

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"pmapedit/pmap"

	"golang.org/x/image/riff"
)

/*
typedef struct tagLOGPALETTE {
  WORD         palVersion;
  WORD         palNumEntries;
  PALETTEENTRY palPalEntry[1];
} LOGPALETTE;

typedef struct tagPALETTEENTRY {
  BYTE peRed;
  BYTE peGreen;
  BYTE peBlue;
  BYTE peFlags;
} PALETTEENTRY;
*/

var (
	riffType = riff.FourCC{'R', 'I', 'F', 'F'}
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

// MaxPALColors is the largest palette a LOGPALETTE can describe.
const MaxPALColors = math.MaxUint16

var ErrTooManyColors = errors.New("palette: too many colors for a PAL file")

// ReadPAL reads a RIFF PAL file. Files holding several palettes are concatenated in
// file order.
func ReadPAL(r io.Reader) ([]pmap.ColorKey, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open RIFF stream: %w", err)
	} else if formType != palType {
		return nil, fmt.Errorf("unsupported RIFF content type: %s", string(formType[:]))
	}

	return readPalettes(rd, string(formType[:]))
}

func readPalettes(r *riff.Reader, ident string) ([]pmap.ColorKey, error) {
	var res []pmap.ColorKey

	for n := 0; ; n++ {
		id, size, data, err := r.Next()
		if err != nil {
			if err == io.EOF {
				break
			}

			return res, fmt.Errorf("could not read chunk %q#%d: %w", ident, n, err)
		}

		switch id {
		case riff.LIST:
			listType, list, lerr := riff.NewListReader(size, data)
			if lerr != nil {
				return res, fmt.Errorf("could not read list from chunk %q#%d: %w", ident, n, lerr)
			} else if listType != palType {
				return res, fmt.Errorf("chunk %q#%d unsupported type: %s", ident, n, string(listType[:]))
			}

			listRes, lerr := readPalettes(list, fmt.Sprintf("%s%d.%s", ident, n, listType[:]))
			res = append(res, listRes...)
			if lerr != nil {
				return res, lerr
			}
		case dataType:
			pal, err := readPalette(data, fmt.Sprintf("%s%d", ident, n))
			if err != nil {
				return res, err
			}
			res = append(res, pal...)
		default:
			return res, fmt.Errorf("unsupported chunk type in %q#%d: %s", ident, n, string(id[:]))
		}
	}

	return res, nil
}

func readPalette(r io.Reader, ident string) ([]pmap.ColorKey, error) {
	buf := make([]byte, 2)

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("could not read version from chunk %s: %w", ident, err)
	}

	ver := binary.BigEndian.Uint16(buf)
	if ver != 3 {
		return nil, fmt.Errorf("unsupported palette version in chunk %s: %d", ident, ver)
	}

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("could not read number of entries from chunk %s: %w", ident, err)
	}

	count := binary.LittleEndian.Uint16(buf)
	res := make([]pmap.ColorKey, count)
	buf4 := make([]byte, 4)
	for i := range count {
		if _, err := io.ReadFull(r, buf4); err != nil {
			return res[:i], fmt.Errorf("could not read color %d/%d from chunk %s: %w", i, count, ident, err)
		}

		res[i] = pmap.ColorKey{
			R: buf4[0],
			G: buf4[1],
			B: buf4[2],
		}
	}

	return res, nil
}

// WritePAL writes keys as a single-palette RIFF PAL file and returns the number of
// bytes written.
func WritePAL(w io.Writer, keys []pmap.ColorKey) (int64, error) {
	if len(keys) > MaxPALColors {
		return 0, fmt.Errorf("%w: %d > %d", ErrTooManyColors, len(keys), MaxPALColors)
	}

	dataSize := 4 + len(keys)*4 // palVersion + palNumEntries + 4 bytes/color
	buf := make([]byte, 0, 12+8+dataSize)
	buf = append(buf, riffType[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(4+8+dataSize)) // form type + chunk header + data
	buf = append(buf, palType[:]...)

	buf = append(buf, dataType[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	buf = append(buf, 0, 0x03)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(keys)))
	for _, k := range keys {
		buf = append(buf, k.R, k.G, k.B, 0x00)
	}

	n, err := w.Write(buf)
	if err != nil {
		return int64(n), fmt.Errorf("could not write palette: %w", err)
	} else if n != len(buf) {
		return int64(n), fmt.Errorf("wrote only %d/%d bytes", n, len(buf))
	}

	return int64(n), nil
}
