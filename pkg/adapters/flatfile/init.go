// Package flatfile provides a storagy adapter for line-oriented text files.
//
// This file registers the adapter with the driver registry.
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/storagy/pkg/adapters/flatfile"
package flatfile

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/storagy/pkg/adapter"
)

func init() {
	adapter.Register(DriverName, func(ctx context.Context, params adapter.Params, logger *slog.Logger) (adapter.Adapter, error) {
		opts := DefaultOptions()
		if err := adapter.DecodeParams(params, &opts); err != nil {
			return nil, err
		}
		return New(ctx, opts, logger)
	})
}
