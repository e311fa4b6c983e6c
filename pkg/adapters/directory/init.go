// Package directory provides a storagy adapter that lists the files of a
// directory.
//
// This file registers the adapter with the driver registry.
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/storagy/pkg/adapters/directory"
package directory

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/storagy/pkg/adapter"
)

func init() {
	adapter.Register(DriverName, func(ctx context.Context, params adapter.Params, logger *slog.Logger) (adapter.Adapter, error) {
		var opts Options
		if err := adapter.DecodeParams(params, &opts); err != nil {
			return nil, err
		}
		return New(ctx, opts, logger)
	})
}
