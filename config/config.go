// Package config loads the YAML file that parameterises training, evaluation
// and arena runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"kalah/agent"
	"kalah/approx"
	"kalah/game"
	"kalah/meta"
	"kalah/trainer"
)

type Config struct {
	Seed            uint64                `yaml:"seed"`
	Game            game.Config           `yaml:"game"`
	Network         approx.MLPConfig      `yaml:"network"`
	Hyperparameters agent.Hyperparameters `yaml:"hyperparameters"`
	Trainer         trainer.Config        `yaml:"trainer"`
	ModelPath       string                `yaml:"modelPath"`
}

func Default() Config {
	return Config{
		Seed:            1,
		Game:            game.StandardConfig(),
		Network:         approx.DefaultMLPConfig(),
		Hyperparameters: agent.DefaultHyperparameters(),
		Trainer:         trainer.DefaultConfig(),
		ModelPath:       meta.ModelFile,
	}
}

// Load overlays the YAML file at path on Default. A missing file at the
// default location is not an error.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && path == meta.ConfigFile {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if err := c.Hyperparameters.Validate(); err != nil {
		return fmt.Errorf("hyperparameters: %w", err)
	}
	if err := c.Trainer.Validate(); err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	for _, h := range c.Network.Hidden {
		if h <= 0 {
			return fmt.Errorf("network: hidden layer size %d must be positive", h)
		}
	}
	return nil
}

// Write stores c as YAML, creating parent directories as needed.
func Write(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), meta.Permissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
