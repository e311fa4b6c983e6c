package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/storagy/pkg/core"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a driver factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a driver factory by name. Names are case-sensitive.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a connected adapter for the named driver.
// The logger parameter is passed to the adapter constructor (nil uses discard logger).
func New(ctx context.Context, driver string, params Params, logger *slog.Logger) (Adapter, error) {
	if driver == "" {
		return nil, fmt.Errorf("driver not specified")
	}

	factory, ok := Get(driver)
	if !ok {
		return nil, &core.UnknownDriverError{
			Driver:    driver,
			Available: ListDrivers(),
		}
	}

	logger = Logger(logger).With(slog.String("driver", driver))
	a, err := factory(ctx, params, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", driver, err)
	}
	return a, nil
}

// ListDrivers returns all registered driver names (sorted).
func ListDrivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a driver name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
