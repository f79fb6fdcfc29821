package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelError, levelFromString("ERROR"))
	assert.Equal(t, slog.LevelWarn, levelFromString(" warning "))
	assert.Equal(t, slog.LevelInfo, levelFromString("info"))
	assert.Equal(t, slog.LevelDebug, levelFromString(""))
}

func TestFileSinkWritesRecords(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "narrator.log")
	logger, closer := NewWithOptions(Options{Level: "info", File: path, Quiet: true})
	logger.With("component", "test").Info("stage done", "stage", "articles_fetched")
	logger.Debug("hidden")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "component=test")
	assert.Contains(t, string(raw), "stage=articles_fetched")
	assert.NotContains(t, string(raw), "hidden")
}
