// Package meta implements the commands managing PMAP metadata inside PNG files.
package meta

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pmapedit/imgio"
	"pmapedit/parallel"
	"pmapedit/pmap"
	"pmapedit/pngmeta"

	"github.com/alecthomas/kong"
	"github.com/klauspost/compress/zlib"
)

// ErrNoMetadata is returned by extract for a PNG without a PMAP chunk.
var ErrNoMetadata = errors.New("no palette metadata")

type CLICmd struct {
	Embed   EmbedCmd   `cmd:"" help:"Convert the images of a folder to PNG files carrying their PMAP document"`
	Extract ExtractCmd `cmd:"" help:"Write the PMAP document of a PNG file to a PMAP file"`
	Strip   StripCmd   `cmd:"" help:"Remove the PMAP document from a PNG file"`
}

type EmbedCmd struct {
	Scan     string `help:"Source folder to scan" default:"." env:"PMAPEDIT_SCAN"`
	Dest     string `help:"Destination folder. Relative to scan dir if not absolute. If same as scan dir, PNG sources are overwritten." default:"embedded" env:"PMAPEDIT_DEST"`
	Compress bool   `help:"Compress the PMAP document" default:"false" env:"PMAPEDIT_COMPRESS"`
	Level    int    `help:"Compression level, 1 (fastest) to 9 (smallest)" default:"9" env:"PMAPEDIT_COMPRESS_LEVEL"`
	Workers  int    `help:"Parallel workers, 0 for one per CPU" default:"0" env:"PMAPEDIT_WORKERS"`
}

func (c *EmbedCmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.Compress && (c.Level < zlib.BestSpeed || c.Level > zlib.BestCompression) {
		return fmt.Errorf("invalid compression level: %d", c.Level)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}
	return nil
}

func (c *EmbedCmd) Run() error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var opts []pngmeta.Option
	if c.Compress {
		opts = append(opts, pngmeta.WithCompression(c.Level))
	}

	pool := parallel.Start(c.Workers)
	for _, file := range files {
		if file.IsDir() || imgio.IsPMAP(file.Name()) {
			continue
		}

		src := filepath.Join(c.Scan, file.Name())
		dest := filepath.Join(c.Dest, imgio.SwapExt(file.Name(), ".png"))
		pool.Go(func() error {
			return embed(src, dest, opts)
		})
	}

	stats := pool.Wait()
	slog.Info("stats", "processed", stats.Succeeded, "errors", stats.Failed, "total", stats.Total())

	if stats.Failed > 0 {
		return fmt.Errorf("error processing %d files", stats.Failed)
	}
	return nil
}

func embed(src, dest string, opts []pngmeta.Option) error {
	logger := slog.Default().With("file", src)

	doc, err := imgio.Open(src)
	if err != nil {
		logger.Error("could not index image", "error", err)
		return err
	}

	if err = doc.Save(dest, true, opts...); err != nil {
		logger.Error("could not save image", "dest", dest, "error", err)
		return err
	}

	logger.Debug("embedded", "dest", dest, "source", doc.Source, "colors", doc.Index.Len())
	return nil
}

type ExtractCmd struct {
	File string `arg:"" type:"existingfile" help:"PNG file"`
	Out  string `short:"o" help:"Output PMAP file. Defaults to the PNG path with a .pmap extension"`
}

func (c *ExtractCmd) Validate(kctx *kong.Context) error {
	if c.Out == "" {
		c.Out = imgio.SwapExt(c.File, ".pmap")
	}
	return nil
}

func (c *ExtractCmd) Run() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", c.File, err)
	}

	text, ok, err := pngmeta.Extract(data)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", c.File, err)
	} else if !ok {
		return fmt.Errorf("%q: %w", c.File, ErrNoMetadata)
	}

	ix, err := pmap.Decode(text)
	if err != nil {
		return fmt.Errorf("invalid palette metadata in %q: %w", c.File, err)
	}

	if err = imgio.WriteBytes(c.Out, []byte(text)); err != nil {
		return err
	}
	slog.Info("extracted", "file", c.File, "out", c.Out, "colors", ix.Len())
	return nil
}

type StripCmd struct {
	File string `arg:"" type:"existingfile" help:"PNG file"`
	Out  string `short:"o" help:"Output PNG file. Defaults to overwriting the source"`
}

func (c *StripCmd) Validate(kctx *kong.Context) error {
	if c.Out == "" {
		c.Out = c.File
	}
	return nil
}

func (c *StripCmd) Run() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", c.File, err)
	}

	stripped, err := pngmeta.Strip(data)
	if err != nil {
		return fmt.Errorf("could not strip %q: %w", c.File, err)
	}

	if err = imgio.WriteBytes(c.Out, stripped); err != nil {
		return err
	}
	slog.Info("stripped", "file", c.File, "out", c.Out, "removed", len(data)-len(stripped))
	return nil
}
