package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parsecfs/parsec/pkg/log"
)

// BackendKind selects which backend.BlockBackend/backend.VlobBackend
// implementation the CLI wires up.
type BackendKind string

const (
	BackendMemory BackendKind = "memory"
	BackendWS     BackendKind = "websocket"
)

// Config is the root of a parsec CLI configuration file.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// BackendConfig selects and parameterizes the backend transport.
type BackendConfig struct {
	Kind BackendKind `yaml:"kind"`

	// WebSocket dial options, used when Kind == BackendWS.
	URL string `yaml:"url"`

	// Local bbolt-backed dirty cache paths, empty disables persistence
	// (pure in-memory dirty tracking) for that store.
	BlockCachePath string `yaml:"block_cache_path"`
	VlobCachePath  string `yaml:"vlob_cache_path"`
}

// LogConfig mirrors pkg/log.Config for YAML loading.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig holds the Prometheus listener settings (enabled flag and
// address). cmd/parsec loads them but does not start a metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration the CLI uses when no file is given:
// an in-memory backend and human-readable logging at info level.
func Default() Config {
	return Config{
		Backend: BackendConfig{Kind: BackendMemory},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: false, Addr: ":9090"},
	}
}

// Load reads and parses a YAML configuration file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyLogging initializes pkg/log from the configuration's Log section.
func (c Config) ApplyLogging() {
	log.Init(log.Config{
		Level:      log.Level(c.Log.Level),
		JSONOutput: c.Log.JSON,
	})
}
