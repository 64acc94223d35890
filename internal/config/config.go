package config

import (
	"fmt"

	"github.com/ossyrian/sqparse/internal/sqpack"
)

// Config holds app configuration
type Config struct {
	InputFile string `mapstructure:"input"`

	// Offsets lists the files to extract, each either a bare data offset
	// (decimal or 0x-prefixed hex) or FOLDER/FILE@OFFSET as printed in logs
	Offsets []string `mapstructure:"offsets"`

	// OutputDir receives one .bin file per extracted payload
	// If empty, payloads are only validated
	OutputDir string `mapstructure:"output"`

	Workers   int `mapstructure:"workers"`
	CacheSize int `mapstructure:"cache_size"`

	DryRun       bool   `mapstructure:"dry_run"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// Descriptors parses Offsets.
func (c *Config) Descriptors() ([]sqpack.OffsetDescriptor, error) {
	if len(c.Offsets) == 0 {
		return nil, fmt.Errorf("no offsets to extract")
	}

	descs := make([]sqpack.OffsetDescriptor, 0, len(c.Offsets))
	for _, s := range c.Offsets {
		d, err := sqpack.ParseOffsetDescriptor(s)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// Validate checks that the configuration can drive an extraction.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if len(c.Offsets) == 0 {
		return fmt.Errorf("at least one offset is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	return nil
}
