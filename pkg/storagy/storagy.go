// Package storagy is the entry point of the library: it builds an adapter
// for a driver name and forwards the uniform read operations to it.
//
// Importing this package registers every built-in driver.
package storagy

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/storagy/pkg/adapter"
	"github.com/leapstack-labs/storagy/pkg/core"

	// Built-in drivers
	_ "github.com/leapstack-labs/storagy/pkg/adapters/delimited"
	_ "github.com/leapstack-labs/storagy/pkg/adapters/directory"
	_ "github.com/leapstack-labs/storagy/pkg/adapters/flatfile"
	_ "github.com/leapstack-labs/storagy/pkg/adapters/relational"
	_ "github.com/leapstack-labs/storagy/pkg/adapters/spreadsheet"
)

// Params are the driver constructor arguments.
type Params = adapter.Params

// Option configures a Storagy.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger sets the logger handed to the adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// Storagy wraps one connected adapter.
type Storagy struct {
	adapter adapter.Adapter
}

// New builds a connected adapter for driver through the driver registry.
func New(ctx context.Context, driver string, params Params, opts ...Option) (*Storagy, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	a, err := adapter.New(ctx, driver, params, s.logger)
	if err != nil {
		return nil, err
	}
	return &Storagy{adapter: a}, nil
}

// Drivers returns the registered driver names.
func Drivers() []string {
	return adapter.ListDrivers()
}

// Adapter returns the underlying adapter, for driver-specific operations.
func (s *Storagy) Adapter() adapter.Adapter {
	return s.adapter
}

// All returns every row of the source.
func (s *Storagy) All(ctx context.Context) ([]core.Row, error) {
	r, ok := s.adapter.(adapter.Reader)
	if !ok {
		return nil, s.unsupported("all")
	}
	return r.All(ctx)
}

// FieldList returns the field names of the source.
func (s *Storagy) FieldList(ctx context.Context) ([]string, error) {
	l, ok := s.adapter.(adapter.FieldLister)
	if !ok {
		return nil, s.unsupported("field_list")
	}
	return l.FieldList(ctx)
}

// IsEmpty reports whether the source holds no data.
func (s *Storagy) IsEmpty(ctx context.Context) (bool, error) {
	e, ok := s.adapter.(adapter.EmptinessChecker)
	if !ok {
		return false, s.unsupported("is_empty")
	}
	return e.IsEmpty(ctx)
}

// Close disconnects the adapter.
func (s *Storagy) Close() error {
	return s.adapter.Disconnect()
}

func (s *Storagy) unsupported(op string) error {
	return &core.UnsupportedError{Driver: s.adapter.Driver(), Operation: op}
}
