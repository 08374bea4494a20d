package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/config"
)

func TestDefaultIsMemoryBackend(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, config.BackendMemory, cfg.Backend.Kind)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadParsesYAMLAndFillsDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parsec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  kind: websocket
  url: ws://localhost:9001/rpc
log:
  level: debug
  json: true
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendWS, cfg.Backend.Kind)
	assert.Equal(t, "ws://localhost:9001/rpc", cfg.Backend.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	// metrics is omitted from the YAML, so its defaults survive.
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
