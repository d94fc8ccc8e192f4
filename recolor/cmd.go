// Package recolor implements the commands changing the colors of a PMAP document and
// exporting its palette.
package recolor

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pmapedit/imgio"
	"pmapedit/palette"
	"pmapedit/pmap"
	"pmapedit/posmap"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Replace ReplaceCmd `cmd:"" help:"Replace one color of a PMAP file or image"`
	Apply   ApplyCmd   `cmd:"" help:"Remap the colors of a PMAP file or image onto a palette"`
	Palette PaletteCmd `cmd:"" help:"Export the colors of a PMAP file or image as a palette"`
	Import  ImportCmd  `cmd:"" help:"Recolor a PMAP file or image from a JSON positioned map, matching colors by ID"`
}

// output defaults to the source itself. A PNG source carrying PMAP metadata keeps it.
type output struct {
	Out string `short:"o" help:"Output file, a .pmap or an image. Defaults to overwriting the source"`
}

func (o *output) save(doc *imgio.Document) error {
	out := o.Out
	if out == "" {
		out = doc.Path
	}
	if err := doc.Save(out, doc.Source == imgio.FromEmbedded); err != nil {
		return fmt.Errorf("could not save %q: %w", out, err)
	}
	return nil
}

type ReplaceCmd struct {
	File    string `arg:"" type:"existingfile" help:"PMAP file or image"`
	From    string `required:"" help:"Color to replace: #RGB, #RRGGBB, rgb(r, g, b) or r,g,b"`
	To      string `required:"" help:"Replacement color, same syntax as --from"`
	Nearest bool   `help:"If --from is not in the document, replace its perceptually closest color" default:"false"`
	output

	from, to pmap.ColorKey `kong:"-"`
}

func (c *ReplaceCmd) Validate(kctx *kong.Context) error {
	var err error
	if c.from, err = pmap.ParseColor(c.From); err != nil {
		return fmt.Errorf("invalid --from color: %w", err)
	}
	if c.to, err = pmap.ParseColor(c.To); err != nil {
		return fmt.Errorf("invalid --to color: %w", err)
	}
	return nil
}

func (c *ReplaceCmd) Run() error {
	logger := slog.Default().With("file", c.File)

	doc, err := imgio.Open(c.File)
	if err != nil {
		return err
	}

	from := c.from
	if !doc.Index.Has(from) {
		if !c.Nearest {
			return fmt.Errorf("color %s not found in %q", from, c.File)
		}
		keys := doc.Index.Colors()
		i := palette.Nearest(keys, from)
		if i < 0 {
			return fmt.Errorf("no colors in %q", c.File)
		}
		logger.Info("using nearest color", "requested", from, "nearest", keys[i])
		from = keys[i]
	}

	merged := doc.Index.Has(c.to) && from != c.to
	count := doc.Index.PixelCount(from)
	doc.Index.ReplaceColor(from, c.to)

	if err = c.save(doc); err != nil {
		return err
	}
	logger.Info("replaced", "from", from, "to", c.to, "pixels", count, "merged", merged, "colors", doc.Index.Len())
	return nil
}

type ApplyCmd struct {
	File  string `arg:"" type:"existingfile" help:"PMAP file or image"`
	Strip string `required:"" type:"existingfile" help:"Target palette: a strip image with one pixel per color, or a RIFF PAL file"`
	output
}

func (c *ApplyCmd) Run() error {
	logger := slog.Default().With("file", c.File, "palette", c.Strip)

	doc, err := imgio.Open(c.File)
	if err != nil {
		return err
	}

	target, err := loadPalette(c.Strip)
	if err != nil {
		return err
	}

	mapping, err := palette.Mapping(doc.Index.Colors(), target)
	if err != nil {
		return err
	}
	doc.Index.Remap(mapping)

	if err = c.save(doc); err != nil {
		return err
	}
	logger.Info("applied", "changed", len(mapping), "colors", doc.Index.Len())
	return nil
}

type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"PMAP file or image"`
	Map  string `required:"" type:"existingfile" help:"Positioned map written by export. Color ID n replaces the n-th color"`
	output
}

func (c *ImportCmd) Run() error {
	logger := slog.Default().With("file", c.File, "map", c.Map)

	doc, err := imgio.Open(c.File)
	if err != nil {
		return err
	}

	f, err := os.Open(c.Map)
	if err != nil {
		return fmt.Errorf("could not open positioned map: %w", err)
	}
	colors, err := posmap.Read(f)
	if closeErr := f.Close(); closeErr != nil {
		logger.Error("could not close positioned map", "error", closeErr)
	}
	if err != nil {
		return fmt.Errorf("could not read %q: %w", c.Map, err)
	}

	mapping, skipped := posmap.Mapping(doc.Index, colors)
	if skipped > 0 {
		logger.Warn("ignoring color IDs beyond the document", "skipped", skipped, "colors", doc.Index.Len())
	}
	doc.Index.Remap(mapping)

	if err = c.save(doc); err != nil {
		return err
	}
	logger.Info("imported", "changed", len(mapping), "colors", doc.Index.Len())
	return nil
}

func loadPalette(path string) ([]pmap.ColorKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open palette %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close palette", "file", path, "error", closeErr)
		}
	}()

	if isPAL(path) {
		keys, err := palette.ReadPAL(f)
		if err != nil {
			return nil, fmt.Errorf("could not read palette %q: %w", path, err)
		}
		return keys, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read palette %q: %w", path, err)
	}
	img, _, err := imgio.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("palette %q: %w", path, err)
	}
	return palette.FromStrip(img), nil
}

func isPAL(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pal")
}

type PaletteCmd struct {
	File  string `arg:"" type:"existingfile" help:"PMAP file or image"`
	Out   string `short:"o" help:"Output palette: a .pal RIFF file or a strip image. Defaults to the source path with a .pal extension"`
	Order string `help:"Color order" enum:"index,lightness,hue" default:"index"`
}

func (c *PaletteCmd) Validate(kctx *kong.Context) error {
	if c.Out == "" {
		c.Out = imgio.SwapExt(c.File, ".pal")
		return nil
	}
	if isPAL(c.Out) {
		return nil
	}
	_, err := imgio.FormatFromPath(c.Out)
	return err
}

func (c *PaletteCmd) Run() error {
	doc, err := imgio.Open(c.File)
	if err != nil {
		return err
	}

	keys, err := palette.Sorted(doc.Index.Colors(), palette.Order(c.Order))
	if err != nil {
		return err
	}

	if isPAL(c.Out) {
		err = imgio.WriteFile(c.Out, func(w io.Writer) error {
			_, err := palette.WritePAL(w, keys)
			return err
		})
	} else {
		format, _ := imgio.FormatFromPath(c.Out)
		err = imgio.WriteFile(c.Out, func(w io.Writer) error {
			return imgio.Encode(w, palette.StripImage(keys), format)
		})
	}
	if err != nil {
		return fmt.Errorf("could not save palette %q: %w", c.Out, err)
	}

	slog.Info("exported palette", "file", c.File, "out", c.Out, "colors", len(keys), "order", c.Order)
	return nil
}
