package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/storagy/pkg/adapter"
)

// Validate checks the output mode and that every source names a registered driver.
// Drivers register from init, so the caller must have imported them.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputAuto, OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q (want auto, table, json or yaml)", c.Output)
	}

	var errs []error
	for _, name := range c.SourceNames() {
		if err := c.Sources[name].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the source names a registered driver.
func (s SourceConfig) Validate() error {
	if s.Driver == "" {
		return fmt.Errorf("driver is required")
	}
	if !adapter.IsRegistered(s.Driver) {
		return &adapter.UnknownDriverError{
			Driver:    s.Driver,
			Available: adapter.ListDrivers(),
		}
	}
	return nil
}
