// Package config loads the storagy.yaml project file that names the data
// sources the CLI works with.
//
// Values are layered with koanf, lowest to highest precedence:
// built-in defaults, the config file, STORAGY_* environment variables and
// explicitly set command-line flags.
package config

import (
	"fmt"
	"sort"
)

// Output modes accepted by the output setting.
const (
	OutputAuto  = "auto"
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// SourceConfig describes one named data source.
type SourceConfig struct {
	// Driver is the registered driver name (delimited, relational, ...).
	Driver string `koanf:"driver"`

	// Params are handed verbatim to the driver's constructor.
	Params map[string]any `koanf:"params"`
}

// Config holds all CLI configuration options.
type Config struct {
	Output  string                  `koanf:"output"`
	Verbose bool                    `koanf:"verbose"`
	Sources map[string]SourceConfig `koanf:"sources"`

	// File is the config file that was loaded, empty when none was found.
	File string `koanf:"-"`
}

// Source returns the named source.
func (c *Config) Source(name string) (SourceConfig, error) {
	src, ok := c.Sources[name]
	if !ok {
		return SourceConfig{}, &UnknownSourceError{Name: name, Available: c.SourceNames()}
	}
	return src, nil
}

// SourceNames returns the configured source names in sorted order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownSourceError is returned when a command names a source that is not configured.
type UnknownSourceError struct {
	Name      string
	Available []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q\nConfigured sources: %v\nHint: Add it under sources: in storagy.yaml", e.Name, e.Available)
}
