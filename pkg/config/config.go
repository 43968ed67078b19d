// Package config loads store configuration from defaults, a JSON file and
// STATEBOX_* environment variables, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config describes how a store is assembled.
type Config struct {
	// Name identifies the store in events and spans.
	Name string `json:"name" env:"STATEBOX_NAME"`

	// Observer names a registered observer ("noop", "slog", ...).
	Observer string `json:"observer" env:"STATEBOX_OBSERVER"`

	// Middleware lists built-in middleware by name, outermost first.
	Middleware []string `json:"middleware" env:"STATEBOX_MIDDLEWARE" envSeparator:","`

	// TracingNil controls the tracing middleware. Use Tracing() to access.
	// When nil, defaults to true.
	TracingNil *bool `json:"tracing" env:"STATEBOX_TRACING"`

	// ServiceVersion is reported on the tracer resource.
	ServiceVersion string `json:"service_version" env:"STATEBOX_VERSION"`

	// StdoutTraces exports spans to stdout.
	StdoutTraces bool `json:"stdout_traces" env:"STATEBOX_STDOUT_TRACES"`
}

func (c *Config) Tracing() bool {
	if c.TracingNil == nil {
		return true
	}
	return *c.TracingNil
}

// DefaultConfig returns the configuration used when nothing else is set.
//
// Defaults:
//   - Name: "store"
//   - Observer: "noop"
//   - Middleware: ["async"]
//   - Tracing: true
func DefaultConfig() Config {
	tracing := true
	return Config{
		Name:       "store",
		Observer:   "noop",
		Middleware: []string{"async"},
		TracingNil: &tracing,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if len(source.Middleware) > 0 {
		c.Middleware = append([]string(nil), source.Middleware...)
	}
	if source.TracingNil != nil {
		c.TracingNil = source.TracingNil
	}
	if source.ServiceVersion != "" {
		c.ServiceVersion = source.ServiceVersion
	}
	if source.StdoutTraces {
		c.StdoutTraces = true
	}
}

// LoadFile reads a JSON config file and merges it over the defaults.
func LoadFile(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// ParseEnv fills target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv returns the configuration set through STATEBOX_* variables alone.
// Unset variables leave their fields zero.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the file at path
// if it exists, then the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		fromFile, err := LoadFile(path)
		switch {
		case err == nil:
			cfg = *fromFile
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	fromEnv, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	cfg.Merge(fromEnv)
	return &cfg, nil
}
