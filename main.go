package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"pmapedit/convert"
	"pmapedit/meta"
	"pmapedit/recolor"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type CLI struct {
	LogLevel  slog.Level `help:"Log level (debug, info, warn, error)" default:"info" env:"PMAPEDIT_LOG_LEVEL"`
	LogFormat string     `help:"Log format" enum:"text,json" default:"text" env:"PMAPEDIT_LOG_FORMAT"`

	Convert convert.CLICmd `embed:""`
	Meta    meta.CLICmd    `embed:""`
	Recolor recolor.CLICmd `embed:""`
}

// AfterApply installs the default logger once the command line is parsed and validated.
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(os.Stderr, c.LogLevel, c.LogFormat))
	return nil
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("pmapedit"),
		kong.Description("Index image colors into PMAP documents, embed them in PNG files and recolor them."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(kctx.Run())
}
