package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Load builds Options with priority defaults < YAML file (if path is
// non-empty and exists) < environment variables.
func Load(path string) (*Options, error) {
	opts := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFromFile(opts, path); err != nil {
				return nil, fmt.Errorf("loading config from %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process("", opts); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	opts.Validate()
	return opts, nil
}

func loadFromFile(opts *Options, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, opts)
}
