package beans

import (
	"context"
	"fmt"
	"time"

	"github.com/GoCodeAlone/beans/config"
)

// Config holds container settings. It can be loaded from files and the
// environment with LoadConfig or built directly.
type Config struct {
	// ScanRoots are the package path roots Scan uses when called without roots.
	ScanRoots []string `yaml:"scanRoots" json:"scanRoots" toml:"scanRoots" env:"BEANS_SCAN_ROOTS"`

	// Exclude drops components whose package matches any of these patterns.
	Exclude []string `yaml:"exclude" json:"exclude" toml:"exclude" env:"BEANS_EXCLUDE"`

	// LockTimeout bounds the wait for the creation lock. Zero or negative
	// values disable the bound and only the caller's context applies.
	LockTimeout time.Duration `yaml:"lockTimeout" json:"lockTimeout" toml:"lockTimeout" env:"BEANS_LOCK_TIMEOUT" default:"30s"`

	// EagerSingletons makes Scan create every singleton right away.
	EagerSingletons bool `yaml:"eagerSingletons" json:"eagerSingletons" toml:"eagerSingletons" env:"BEANS_EAGER_SINGLETONS"`

	// EventSource is the CloudEvents source of emitted events.
	EventSource string `yaml:"eventSource" json:"eventSource" toml:"eventSource" env:"BEANS_EVENT_SOURCE" default:"beans"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	_ = config.ProcessDefaults(cfg)
	return cfg
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	for _, root := range append(append([]string{}, c.ScanRoots...), c.Exclude...) {
		if _, err := compileRoot(root); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig feeds a Config from the given feeders in order, applies
// defaults and validates the result. The "beans" section of structured
// files is honoured as well as top-level keys.
func LoadConfig(ctx context.Context, feeders ...config.Feeder) (*Config, error) {
	cfg := &Config{}
	loader := config.NewLoader().AddFeeder(feeders...).AddSection("beans", cfg)
	if err := loader.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("load container config: %w", err)
	}
	return cfg, nil
}
