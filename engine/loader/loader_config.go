package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config tunes the importer and the loader around it.
type Config struct {
	// MaxWeights caps the number of morph targets per primitive. It cannot exceed model.MaxWeights.
	MaxWeights int `toml:"max_weights" yaml:"max_weights"`

	// GenerateMipmaps builds mip chains on the CPU for textures whose sampler samples mip levels.
	GenerateMipmaps bool `toml:"generate_mipmaps" yaml:"generate_mipmaps"`

	// Workers is the size of the worker pool used by LoadBatch.
	Workers int `toml:"workers" yaml:"workers"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// Watch reloads cached assets when their source file changes.
	Watch bool `toml:"watch" yaml:"watch"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		MaxWeights:      model.MaxWeights,
		GenerateMipmaps: true,
		Workers:         4,
		LogLevel:        "info",
	}
}

// LoadConfig reads a configuration file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as TOML. Fields missing from the file keep their defaults.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - Config: the decoded and validated configuration
//   - error: error if the file cannot be read, decoded or validated
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to decode config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every field is in range.
func (c Config) Validate() error {
	if c.MaxWeights < 1 || c.MaxWeights > model.MaxWeights {
		return errors.Errorf("max_weights must be between 1 and %d, got %d", model.MaxWeights, c.MaxWeights)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
