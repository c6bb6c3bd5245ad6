// Package config loads generation parameters from defaults, an optional YAML
// file and CATCHGEN_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/talgya/catchgen/internal/agents"
	"github.com/talgya/catchgen/internal/radix"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CATCHGEN_"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config holds everything needed to generate one problem file.
type Config struct {
	Rows        int     `yaml:"rows" env:"ROWS"`
	Cols        int     `yaml:"cols" env:"COLS"`
	Agents      int     `yaml:"agents" env:"AGENTS"`           // Controllable catchers
	Wumpi       int     `yaml:"wumpi" env:"WUMPI"`             // Randomly moving targets
	Reliability float64 `yaml:"reliability" env:"RELIABILITY"` // Chance a move goes where intended
	Discount    float64 `yaml:"discount" env:"DISCOUNT"`

	Actions           []string `yaml:"actions" env:"ACTIONS" envSeparator:","`
	ObservationLabels []string `yaml:"observation_labels" env:"OBSERVATION_LABELS" envSeparator:","`

	Output string `yaml:"output" env:"OUTPUT"`
	DBPath string `yaml:"db_path" env:"DB_PATH"` // Empty disables the run catalog

	// MaxJointPairs caps joint states × joint actions, the number of
	// composer calls a run makes.
	MaxJointPairs int `yaml:"max_joint_pairs" env:"MAX_JOINT_PAIRS"`
}

// Default returns the classic small catch configuration: a 2x2 grid, two
// catchers that can only move north, no wumpi.
func Default() Config {
	return Config{
		Rows:              2,
		Cols:              2,
		Agents:            2,
		Wumpi:             0,
		Reliability:       0.8,
		Discount:          0.95,
		Actions:           []string{"N"},
		ObservationLabels: []string{"wp", "wa"},
		Output:            "catchSimple.POMDP",
		DBPath:            "data/catchgen.db",
		MaxJointPairs:     5_000_000,
	}
}

// Load starts from Default, overlays the YAML file at path (if path is not
// empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Cells returns the number of grid positions.
func (c Config) Cells() int {
	return c.Rows * c.Cols
}

// Validate rejects configurations that cannot produce a well-formed file or
// that would exceed MaxJointPairs.
func (c Config) Validate() error {
	switch {
	case c.Rows <= 0 || c.Cols <= 0:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalid, c.Rows, c.Cols)
	case c.Agents < 1:
		return fmt.Errorf("%w: need at least one agent, got %d", ErrInvalid, c.Agents)
	case c.Wumpi < 0:
		return fmt.Errorf("%w: wumpi=%d", ErrInvalid, c.Wumpi)
	case c.Reliability < 0 || c.Reliability > 1:
		return fmt.Errorf("%w: reliability %v not in [0, 1]", ErrInvalid, c.Reliability)
	case c.Discount < 0 || c.Discount > 1:
		return fmt.Errorf("%w: discount %v not in [0, 1]", ErrInvalid, c.Discount)
	case len(c.ObservationLabels) == 0:
		return fmt.Errorf("%w: no observation labels", ErrInvalid)
	case c.Output == "":
		return fmt.Errorf("%w: no output path", ErrInvalid)
	}
	for _, l := range c.ObservationLabels {
		if l == "" {
			return fmt.Errorf("%w: empty observation label", ErrInvalid)
		}
	}
	if _, err := agents.ParseActions(c.Actions); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	states, err := radix.Product(radix.Uniform(c.Cells(), c.Agents+c.Wumpi))
	if err != nil {
		return fmt.Errorf("%w: joint states: %v", ErrInvalid, err)
	}
	actions, err := radix.Product(radix.Uniform(len(c.Actions), c.Agents))
	if err != nil {
		return fmt.Errorf("%w: joint actions: %v", ErrInvalid, err)
	}
	if c.MaxJointPairs > 0 && states > c.MaxJointPairs/actions {
		return fmt.Errorf("%w: %d joint states x %d joint actions exceeds max_joint_pairs %d",
			ErrInvalid, states, actions, c.MaxJointPairs)
	}
	return nil
}

// ParsedActions returns the catcher action set. Call Validate first.
func (c Config) ParsedActions() []agents.Action {
	acts, _ := agents.ParseActions(c.Actions)
	return acts
}
