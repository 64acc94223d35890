package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/sqparse/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   slog.LevelDebug,
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"fatal":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), "level %q", in)
	}
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("console only", func(t *testing.T) {
		var buf bytes.Buffer
		closeLog, err := logging.Setup(&buf, "warn", "")
		require.NoError(t, err)
		defer closeLog()

		slog.Info("dropped")
		slog.Warn("kept", "offset", "0x00000800")

		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "kept")
		assert.Contains(t, buf.String(), "0x00000800")
	})

	t.Run("with file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")
		var buf bytes.Buffer
		closeLog, err := logging.Setup(&buf, "info", dir)
		require.NoError(t, err)

		slog.Info("extracted file", "size", 150)
		require.NoError(t, closeLog())

		matches, err := filepath.Glob(filepath.Join(dir, "sqparse_*.log"))
		require.NoError(t, err)
		require.Len(t, matches, 1)

		content, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"extracted file"`)
		assert.Contains(t, string(content), `"size":150`)
		assert.Contains(t, buf.String(), "extracted file")
	})
}
