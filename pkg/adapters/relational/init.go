// Package relational provides a storagy adapter for SQL databases reached
// through database/sql, with a cursor modeled as a transaction.
//
// This file registers the adapter with the driver registry.
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/storagy/pkg/adapters/relational"
package relational

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/storagy/pkg/adapter"
)

func init() {
	adapter.Register(DriverName, func(ctx context.Context, params adapter.Params, logger *slog.Logger) (adapter.Adapter, error) {
		params, err := resolveAliases(params)
		if err != nil {
			return nil, err
		}
		opts := DefaultOptions()
		if err := adapter.DecodeParams(params, &opts); err != nil {
			return nil, err
		}
		return New(ctx, opts, logger)
	})
}
