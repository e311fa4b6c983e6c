// Package adapter provides the contract every storagy data-source adapter
// implements, plus the dispatcher that builds adapters from a driver name.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves from init(). Import pkg/storagy (or the adapter packages with a
// blank identifier) to populate the driver table.
package adapter

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/storagy/pkg/core"
)

// Type aliases so callers working only with adapters need not import pkg/core.
type (
	// Row is an alias for core.Row.
	Row = core.Row

	// UnknownDriverError is an alias for core.UnknownDriverError.
	UnknownDriverError = core.UnknownDriverError
)

// Params are the keyword arguments handed to a driver's constructor. Keys
// follow the snake_case names of the adapter's option struct.
type Params map[string]any

// Adapter defines the lifecycle every data-source adapter implements.
// Adapters are returned already connected by their constructors.
//
// An adapter instance has a single owner; none of the implementations are
// safe for concurrent use.
type Adapter interface {
	// Driver returns the dispatcher name the adapter is registered under.
	Driver() string

	// Connect acquires the native handle. It is a no-op when already connected.
	Connect(ctx context.Context) error

	// Disconnect releases the native handle. It is a no-op when not connected.
	Disconnect() error

	// IsConnected reports whether a native handle is held.
	IsConnected() bool
}

// Reader is implemented by adapters that can read every row of their source.
type Reader interface {
	All(ctx context.Context) ([]Row, error)
}

// FieldLister is implemented by adapters whose rows have named fields.
type FieldLister interface {
	FieldList(ctx context.Context) ([]string, error)
}

// EmptinessChecker is implemented by adapters that can report an empty source.
type EmptinessChecker interface {
	IsEmpty(ctx context.Context) (bool, error)
}

// Factory builds a connected adapter from driver params.
// A nil logger must be replaced by a discard logger.
type Factory func(ctx context.Context, params Params, logger *slog.Logger) (Adapter, error)

// Logger returns logger, or a discard logger when logger is nil.
func Logger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
