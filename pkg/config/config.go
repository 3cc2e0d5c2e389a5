// Package config loads YAML configuration files with environment variable
// expansion and optional post-parse validation.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that validate themselves
// after parsing.
type Validator interface {
	Validate() error
}

// Load reads filename, expands ${VAR} references against the process
// environment, and unmarshals the result into target. If target implements
// Validator, Validate is called after unmarshalling.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("parse config file %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// LoadIfExists behaves like Load but leaves target untouched when the file
// does not exist, so callers can run on defaults alone.
func LoadIfExists[T any](filename string, target *T) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if v, ok := any(target).(Validator); ok {
			return v.Validate()
		}
		return nil
	}
	return Load(filename, target)
}
