package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5000, cfg.Workers.Threshold)
	assert.GreaterOrEqual(t, cfg.Workers.Count, 1)
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	content := []byte("cache:\n  ttl: 2m\nworkers:\n  count: 3\n  threshold: 100\nanalysis:\n  regionSize: 40\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("SPRAWL_CONFIG", path)
	t.Setenv("WORKER_THRESHOLD", "250")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Workers.Count)
	assert.Equal(t, 250, cfg.Workers.Threshold)
	assert.Equal(t, 40.0, cfg.Analysis.RegionSize)
	assert.Equal(t, 50.0, cfg.Analysis.SectorRadius)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SPRAWL_CONFIG", "")
	t.Setenv("WORKER_COUNT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadFileReportsParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache: [unclosed"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
