package imgio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes path through a temporary file in the same folder, renamed over path
// only once write and the flush succeeded. path may be the file being read.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	outFile, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary destination for %q: %w", path, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && canRename {
			err = fmt.Errorf("could not flush temporary destination %q: %w", outFile.Name(), defErr)
			canRename = false
		}
		if defErr := outFile.Close(); defErr != nil && canRename {
			err = fmt.Errorf("could not close temporary destination %q: %w", outFile.Name(), defErr)
			canRename = false
		}

		if !canRename {
			err = errors.Join(err, os.Remove(outFile.Name()))
			return
		}
		if defErr := os.Rename(outFile.Name(), path); defErr != nil {
			err = fmt.Errorf("could not rename destination file %q: %w", path, defErr)
			_ = os.Remove(outFile.Name())
		}
	}()

	if err = outFile.Chmod(0o644); err != nil {
		return fmt.Errorf("could not set mode of %q: %w", outFile.Name(), err)
	}

	w := bufio.NewWriter(outFile)
	if err = write(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("could not write %q: %w", path, err)
	}

	canRename = true
	return nil
}

// WriteBytes is WriteFile for data already in memory.
func WriteBytes(path string, data []byte) error {
	return WriteFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// SwapExt replaces the extension of path with ext, which includes the dot.
func SwapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
