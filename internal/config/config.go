// Package config loads the machine configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alphaserve/axp/internal/grain"
)

// Defaults applied by normalize.
const (
	DefaultCPUs     = 1
	MaxCPUs         = 32
	DefaultMemoryMB = 64
	DefaultPALBase  = 0x8000
	DefaultVariant  = "alpha"
)

// Config describes one emulated machine.
type Config struct {
	Name        string `yaml:"name"`
	CPUs        int    `yaml:"cpus"`
	MemoryMB    int    `yaml:"memory_mb"`
	Variant     string `yaml:"variant"`
	PALBase     uint64 `yaml:"pal_base"`
	ConsoleBase uint64 `yaml:"console_base"`
	Trace       bool   `yaml:"trace"`
}

// Load reads and validates a machine configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a machine configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize fills defaults and rejects invalid settings.
func (c *Config) normalize() error {
	if c.Name == "" {
		c.Name = "axp"
	}
	if c.CPUs == 0 {
		c.CPUs = DefaultCPUs
	}
	if c.CPUs < 0 || c.CPUs > MaxCPUs {
		return fmt.Errorf("invalid cpu count %d (1..%d)", c.CPUs, MaxCPUs)
	}
	if c.MemoryMB == 0 {
		c.MemoryMB = DefaultMemoryMB
	}
	if c.MemoryMB < 0 {
		return fmt.Errorf("invalid memory size %dMB", c.MemoryMB)
	}
	if c.Variant == "" {
		c.Variant = DefaultVariant
	}
	if _, err := c.Platform(); err != nil {
		return err
	}
	if c.PALBase == 0 {
		c.PALBase = DefaultPALBase
	}
	if c.PALBase&0x7FFF != 0 {
		return fmt.Errorf("pal_base 0x%x is not 32KB aligned", c.PALBase)
	}
	return nil
}

// Platform maps the variant name to an instruction-set platform.
func (c *Config) Platform() (grain.Platform, error) {
	switch c.Variant {
	case "alpha":
		return grain.PlatformAlpha, nil
	case "ev6":
		return grain.PlatformEV6, nil
	case "ev67":
		return grain.PlatformEV67, nil
	default:
		return grain.PlatformAlpha, fmt.Errorf("unknown variant %q", c.Variant)
	}
}

// MemoryBytes returns the configured RAM size in bytes.
func (c *Config) MemoryBytes() uint64 {
	return uint64(c.MemoryMB) << 20
}
