// Package convert implements the commands moving between images and PMAP files.
package convert

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"pmapedit/imgio"
	"pmapedit/posmap"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Encode EncodeCmd `cmd:"" help:"Index the colors of an image into a PMAP file"`
	Decode DecodeCmd `cmd:"" help:"Render a PMAP file as an image"`
	Info   InfoCmd   `cmd:"" help:"List the colors of a PMAP file or image"`
	Export ExportCmd `cmd:"" help:"Write the colors and pixel positions of a PMAP file or image as a JSON positioned map"`
}

type EncodeCmd struct {
	Image string `arg:"" type:"existingfile" help:"Source image"`
	Out   string `short:"o" help:"Output PMAP file. Defaults to the image path with a .pmap extension"`
}

func (c *EncodeCmd) Validate(kctx *kong.Context) error {
	if imgio.IsPMAP(c.Image) {
		return fmt.Errorf("%q is already a PMAP file", c.Image)
	}
	if c.Out == "" {
		c.Out = imgio.SwapExt(c.Image, ".pmap")
	} else if !imgio.IsPMAP(c.Out) {
		return fmt.Errorf("output %q must have a .pmap extension", c.Out)
	}
	return nil
}

func (c *EncodeCmd) Run() error {
	logger := slog.Default().With("file", c.Image)

	doc, err := imgio.Open(c.Image)
	if err != nil {
		return err
	}
	if err = doc.Save(c.Out, false); err != nil {
		return fmt.Errorf("could not save %q: %w", c.Out, err)
	}

	logger.Info("encoded", "out", c.Out, "source", doc.Source, "colors", doc.Index.Len(),
		"width", doc.Width, "height", doc.Height)
	return nil
}

type DecodeCmd struct {
	File   string `arg:"" type:"existingfile" help:"Source PMAP file"`
	Out    string `short:"o" help:"Output image. Defaults to the PMAP path with the extension of --format"`
	Width  int    `help:"Image width. Defaults to the extent of the indexed pixels"`
	Height int    `help:"Image height. Defaults to the extent of the indexed pixels"`
	Format string `help:"Output format when --out is not given" enum:"png,gif,jpeg,bmp,tiff" default:"png"`
	Scale  int    `help:"Enlarge every pixel to a block of this size" default:"1"`
	Embed  bool   `help:"Store the PMAP document in PNG output. Not allowed with --scale" default:"false"`
}

func (c *DecodeCmd) Validate(kctx *kong.Context) error {
	if !imgio.IsPMAP(c.File) {
		return fmt.Errorf("%q is not a PMAP file", c.File)
	}
	switch {
	case c.Width < 0:
		return fmt.Errorf("invalid width: %d", c.Width)
	case c.Height < 0:
		return fmt.Errorf("invalid height: %d", c.Height)
	case c.Scale < 1 || c.Scale > imgio.MaxScale:
		return fmt.Errorf("invalid scale: %d", c.Scale)
	case c.Embed && c.Scale > 1:
		return fmt.Errorf("cannot embed the PMAP document in a scaled image")
	}

	if c.Out == "" {
		c.Out = imgio.SwapExt(c.File, "."+c.Format)
		return nil
	}
	_, err := imgio.FormatFromPath(c.Out)
	return err
}

func (c *DecodeCmd) Run() error {
	logger := slog.Default().With("file", c.File)

	doc, err := imgio.Open(c.File)
	if err != nil {
		return err
	}
	if c.Width > 0 {
		doc.Width = c.Width
	}
	if c.Height > 0 {
		doc.Height = c.Height
	}

	if c.Scale > 1 {
		err = saveScaled(doc, c.Out, c.Scale)
	} else {
		err = doc.Save(c.Out, c.Embed)
	}
	if err != nil {
		return fmt.Errorf("could not save %q: %w", c.Out, err)
	}

	logger.Info("decoded", "out", c.Out, "colors", doc.Index.Len(), "width", doc.Width, "height", doc.Height,
		"scale", c.Scale)
	return nil
}

func saveScaled(doc *imgio.Document, path string, scale int) error {
	format, err := imgio.FormatFromPath(path)
	if err != nil {
		return err
	}
	img, err := doc.Image()
	if err != nil {
		return err
	}
	if img, err = imgio.Scale(img, scale); err != nil {
		return err
	}
	return imgio.WriteFile(path, func(w io.Writer) error {
		return imgio.Encode(w, img, format)
	})
}

type InfoCmd struct {
	File  string `arg:"" type:"existingfile" help:"PMAP file or image"`
	Limit int    `help:"Maximum number of colors listed, 0 for all" default:"0"`
}

func (c *InfoCmd) Run(kctx *kong.Context) error {
	doc, err := imgio.Open(c.File)
	if err != nil {
		return err
	}
	return c.print(kctx.Stdout, doc)
}

func (c *InfoCmd) print(w io.Writer, doc *imgio.Document) error {
	fmt.Fprintf(w, "file:   %s\nsource: %s\nsize:   %dx%d\ncolors: %d\n\n",
		doc.Path, doc.Source, doc.Width, doc.Height, doc.Index.Len())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tHEX\tCOUNT\t")
	i := 0
	for key, coords := range doc.Index.All() {
		if c.Limit > 0 && i == c.Limit {
			fmt.Fprintf(tw, "...\t%d more\t\t\n", doc.Index.Len()-i)
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t\n", i, key, len(coords))
		i++
	}
	return tw.Flush()
}

type ExportCmd struct {
	File string `arg:"" type:"existingfile" help:"PMAP file or image"`
	Out  string `short:"o" help:"Output JSON file. Defaults to the source path with a .json extension"`
}

func (c *ExportCmd) Validate(kctx *kong.Context) error {
	if c.Out == "" {
		c.Out = imgio.SwapExt(c.File, ".json")
	}
	return nil
}

func (c *ExportCmd) Run() error {
	doc, err := imgio.Open(c.File)
	if err != nil {
		return err
	}

	err = imgio.WriteFile(c.Out, func(w io.Writer) error {
		return posmap.Write(w, doc.Index)
	})
	if err != nil {
		return fmt.Errorf("could not save %q: %w", c.Out, err)
	}

	slog.Info("exported positioned map", "file", c.File, "out", c.Out, "colors", doc.Index.Len())
	return nil
}
