package imgio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pmapedit/pmap"
	"pmapedit/pngmeta"
)

// Source tells where a Document's index was read from.
type Source int

const (
	FromPMAP     Source = iota // a .pmap text file
	FromEmbedded               // the PMAP chunk of a PNG
	FromPixels                 // the pixels of an image
)

func (s Source) String() string {
	switch s {
	case FromPMAP:
		return "pmap"
	case FromEmbedded:
		return "embedded"
	case FromPixels:
		return "pixels"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Document is a color index together with the dimensions of the image it describes.
type Document struct {
	Path   string
	Source Source
	Index  *pmap.Index
	Width  int
	Height int
}

// IsPMAP reports whether path names a PMAP text file.
func IsPMAP(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pmap")
}

// Open reads a .pmap file or an image. A PNG carrying PMAP metadata is indexed from the
// metadata, any other image from its pixels. The size of a .pmap document is the
// bounding box of its pixels.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", path, err)
	}

	doc := &Document{Path: path}
	if IsPMAP(path) {
		doc.Source = FromPMAP
		if doc.Index, err = pmap.Decode(string(data)); err != nil {
			return nil, fmt.Errorf("could not decode %q: %w", path, err)
		}
		b := doc.Index.Bounds()
		doc.Width, doc.Height = b.Dx(), b.Dy()
		return doc, nil
	}

	text, ok, err := pngmeta.Extract(data)
	switch {
	case errors.Is(err, pngmeta.ErrNotPNG):
	case err != nil:
		return nil, fmt.Errorf("could not read palette metadata of %q: %w", path, err)
	case ok:
		conf, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("could not read PNG header of %q: %w", path, err)
		}
		if doc.Index, err = pmap.Decode(text); err != nil {
			return nil, fmt.Errorf("could not decode palette metadata of %q: %w", path, err)
		}
		doc.Source = FromEmbedded
		doc.Width, doc.Height = conf.Width, conf.Height
		return doc, nil
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	b := img.Bounds()
	doc.Source = FromPixels
	doc.Index = pmap.FromImage(img)
	doc.Width, doc.Height = b.Dx(), b.Dy()
	return doc, nil
}

// Image renders the document. Indexes of up to 256 colors give an *image.Paletted.
func (d *Document) Image() (image.Image, error) {
	if d.Index.Len() > 256 {
		img, err := d.Index.ReconstructImage(d.Width, d.Height)
		if err != nil {
			return nil, err
		}
		return img, nil
	}

	img, err := d.Index.ReconstructPaletted(d.Width, d.Height)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Save writes the document to path: PMAP text for a .pmap path, otherwise an image in
// the format given by the extension. PNG output carries the index as metadata when
// embed is set.
func (d *Document) Save(path string, embed bool, opts ...pngmeta.Option) error {
	if IsPMAP(path) {
		return WriteFile(path, func(w io.Writer) error {
			_, err := pmap.WriteTo(w, d.Index)
			return err
		})
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	img, err := d.Image()
	if err != nil {
		return fmt.Errorf("could not render %q: %w", path, err)
	}

	if format != PNG || !embed {
		return WriteFile(path, func(w io.Writer) error {
			return Encode(w, img, format)
		})
	}

	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	if data, err = pngmeta.Embed(data, pmap.Encode(d.Index), opts...); err != nil {
		return fmt.Errorf("could not embed palette metadata: %w", err)
	}
	return WriteBytes(path, data)
}
