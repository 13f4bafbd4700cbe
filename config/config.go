// Package config handles wasm2brs.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/MotleyCoderDev/wasm2brs/brs"
	"github.com/MotleyCoderDev/wasm2brs/errors"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "wasm2brs.toml"

// Config represents a wasm2brs.toml file.
type Config struct {
	Output   Output   `toml:"output"`
	Limits   Limits   `toml:"limits"`
	Validate Validate `toml:"validate"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

// Output configures the generated file.
type Output struct {
	// Prefix qualifies every module-owned global identifier.
	Prefix string `toml:"prefix"`
	File   string `toml:"file"`
}

// Limits sets the advisory thresholds.
type Limits struct {
	Labels    int `toml:"labels"`
	Variables int `toml:"variables"`
}

// Validate configures wazero validation before generation.
type Validate struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Limits: Limits{
			Labels:    brs.DefaultLabelLimit,
			Variables: brs.DefaultVariableLimit,
		},
		Validate: Validate{Enabled: true},
	}
}

// Load parses the configuration file at path. Keys missing from the file
// keep their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}

	c := Default()
	meta, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("unknown keys in %s: %s", path, strings.Join(keys, ", ")))
	}
	if err := c.check(); err != nil {
		return nil, err
	}

	c.Path = path
	return c, nil
}

// FindAndLoad walks up from startDir looking for FileName and loads the
// first one found. It returns nil if there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "resolve "+startDir)
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) check() error {
	if c.Limits.Labels < 0 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("limits.labels must not be negative, got %d", c.Limits.Labels))
	}
	if c.Limits.Variables < 0 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("limits.variables must not be negative, got %d", c.Limits.Variables))
	}
	return nil
}

// Options converts the configuration to generator options.
func (c *Config) Options() brs.Options {
	return brs.Options{
		NamePrefix:    c.Output.Prefix,
		LabelLimit:    c.Limits.Labels,
		VariableLimit: c.Limits.Variables,
	}
}
