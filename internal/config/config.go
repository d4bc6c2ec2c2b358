// Package config loads the synapse configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server defaults.
const (
	DefaultAddr                = ":8080"
	DefaultConsolidateInterval = 30 * time.Minute
)

// Config is the full configuration tree. Zero values mean "use the
// component default", so an empty or missing file yields a working setup.
type Config struct {
	Storage    Storage    `yaml:"storage"`
	WorkingSet WorkingSet `yaml:"working_set"`
	Graph      Graph      `yaml:"graph"`
	LongTerm   LongTerm   `yaml:"long_term"`
	Server     Server     `yaml:"server"`
}

// Storage selects the persistence backend.
type Storage struct {
	// Backend is "json" or "sqlite". Empty means json.
	Backend string `yaml:"backend"`
	// Path locates the database. The --db flag and SYNAPSE_DB take
	// precedence; empty falls back to ~/.synapse.
	Path string `yaml:"path"`
}

type WorkingSet struct {
	MaxSize              int     `yaml:"max_size"`
	CompressionThreshold float64 `yaml:"compression_threshold"`
}

type Graph struct {
	DecayRate   float64 `yaml:"decay_rate"`
	MaxStrength float64 `yaml:"max_strength"`
}

type LongTerm struct {
	PruneThreshold float64 `yaml:"prune_threshold"`
	MaxEntries     int     `yaml:"max_entries"`
}

type Server struct {
	Addr string `yaml:"addr"`
	// ConsolidateInterval is a Go duration string, e.g. "30m".
	ConsolidateInterval string `yaml:"consolidate_interval"`
}

// GetAddr returns the listen address, defaulted.
func (s Server) GetAddr() string {
	if s.Addr == "" {
		return DefaultAddr
	}
	return s.Addr
}

// GetConsolidateInterval parses the consolidation interval, falling back to
// the default when the field is empty or malformed.
func (s Server) GetConsolidateInterval() time.Duration {
	if s.ConsolidateInterval == "" {
		return DefaultConsolidateInterval
	}
	d, err := time.ParseDuration(s.ConsolidateInterval)
	if err != nil || d <= 0 {
		return DefaultConsolidateInterval
	}
	return d
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: Storage{Backend: "json"},
	}
}

// Load reads a YAML config file, leaving defaults in place for anything the
// file does not set. A missing file is not an error: it returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
