package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/storagy/pkg/storagy"
	"github.com/spf13/cobra"
)

// secretParams are params whose values are never printed.
var secretParams = map[string]bool{
	"password": true,
}

// NewDriversCommand creates the drivers command.
func NewDriversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List the registered drivers",
		Long: `List the driver names a source can use in storagy.yaml.

Driver names are case-sensitive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			drivers := storagy.Drivers()
			return r.Render(drivers, func() {
				rows := make([][]any, len(drivers))
				for i, d := range drivers {
					rows[i] = []any{d}
				}
				r.Table([]string{"driver"}, rows)
			})
		},
	}
}

// SourceInfo describes one configured source.
type SourceInfo struct {
	Name   string         `json:"name" yaml:"name"`
	Driver string         `json:"driver" yaml:"driver"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// NewSourcesCommand creates the sources command.
func NewSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources",
		Long: `List the sources defined in storagy.yaml with their driver and params.

Password params are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			names := cmdCtx.Cfg.SourceNames()
			if len(names) == 0 {
				r.Warning("no sources configured")
			}

			infos := make([]SourceInfo, 0, len(names))
			for _, name := range names {
				src := cmdCtx.Cfg.Sources[name]
				infos = append(infos, SourceInfo{
					Name:   name,
					Driver: src.Driver,
					Params: maskParams(src.Params),
				})
			}

			return r.Render(infos, func() {
				rows := make([][]any, len(infos))
				for i, info := range infos {
					rows[i] = []any{info.Name, info.Driver, formatParams(info.Params)}
				}
				r.Table([]string{"source", "driver", "params"}, rows)
			})
		},
	}
}

func maskParams(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if secretParams[strings.ToLower(k)] {
			v = "****"
		}
		out[k] = v
	}
	return out
}

// formatParams renders params as sorted key=value pairs.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}
