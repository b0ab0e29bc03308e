// Package config loads the daemon's on-disk configuration: a small YAML
// file naming the store location and the listening socket. Command-line
// flags override file values; the file is optional.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file nor flags say otherwise.
const (
	DefaultSocket   = "/tmp/presenced.sock"
	DefaultDatabase = "/var/lib/presenced/presenced.db"
)

// Config holds the daemon settings.
type Config struct {
	// Socket is the unix socket path the server listens on.
	Socket string `yaml:"socket"`

	// Database is the SQLite database file path.
	Database string `yaml:"database"`

	// Verbose raises logging to debug level.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Socket:   DefaultSocket,
		Database: DefaultDatabase,
	}
}

// Load reads a YAML config file and overlays it on the defaults. Unknown
// keys are rejected to catch typos. A missing file is an error; callers
// skip Load entirely when no path was given.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
