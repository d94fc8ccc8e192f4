package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelWarn, "json")
	logger.Info("hidden")
	logger.Warn("shown", "file", "a.png")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "a.png", rec["file"])

	buf.Reset()
	newLogger(&buf, slog.LevelDebug, "text").Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestCLI(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.pmap")
	require.NoError(t, os.WriteFile(src, []byte("1\n#102030 1 0;0"), 0o644))

	t.Setenv("PMAPEDIT_LOG_LEVEL", "debug")
	var cli CLI
	parser, err := kong.New(&cli, kong.Exit(func(int) {}), kong.Writers(&bytes.Buffer{}, &bytes.Buffer{}))
	require.NoError(t, err)

	kctx, err := parser.Parse([]string{"--log-format", "json", "decode", src})
	require.NoError(t, err)
	assert.Equal(t, "decode <file>", kctx.Command())
	assert.Equal(t, slog.LevelDebug, cli.LogLevel)
	assert.Equal(t, "json", cli.LogFormat)

	require.NoError(t, kctx.Run())
	_, err = os.Stat(filepath.Join(dir, "in.png"))
	assert.NoError(t, err)

	var names []string
	for _, node := range parser.Model.Children {
		names = append(names, node.Name)
	}
	assert.ElementsMatch(t, []string{"encode", "decode", "info", "export", "embed", "extract", "strip",
		"replace", "apply", "palette", "import"}, names)
}
