package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: logging configured into a temp file
	dir := t.TempDir()
	cfg := Config{
		Level:     "info",
		FilePath:  filepath.Join(dir, "pipeline.log"),
		MaxSizeMB: 1,
		MaxFiles:  2,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	// When: a record is logged and the file is flushed
	logger.Info("batch_indexed", "count", 16)
	cleanup()

	// Then: the file contains a parseable JSON record
	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.SplitN(string(data), "\n", 2)[0]), &record))
	assert.Equal(t, "batch_indexed", record["msg"])
	assert.Equal(t, float64(16), record["count"])
}

func TestSetup_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Level:     "warn",
		FilePath:  filepath.Join(dir, "pipeline.log"),
		MaxSizeMB: 1,
		MaxFiles:  2,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")
	cleanup()

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestParseLevel_Defaults(t *testing.T) {
	assert.Equal(t, parseLevel("info"), parseLevel("bogus"))
	assert.Equal(t, parseLevel("warn"), parseLevel("WARNING"))
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.log")

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// Force the threshold low; 1MB is the writer's unit so fake it by
	// writing just past the limit in one chunk.
	chunk := make([]byte, 512*1024)
	for i := 0; i < 3; i++ {
		_, err = w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: a rotated file exists and the live file restarted
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
}

func TestRotatingWriter_KeepsAtMostMaxFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.log")

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	chunk := make([]byte, 600*1024)
	for i := 0; i < 8; i++ {
		_, err = w.Write(chunk)
		require.NoError(t, err)
	}

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 2)
}
