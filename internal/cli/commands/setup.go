package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/storagy/internal/cli/output"
	"github.com/leapstack-labs/storagy/internal/config"
	"github.com/leapstack-labs/storagy/pkg/storagy"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the config and logger the
// root command stored in cmd's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// Open connects the named source. The caller must Close it.
func (c *CommandContext) Open(ctx context.Context, name string) (*storagy.Storagy, error) {
	src, err := c.Cfg.Source(name)
	if err != nil {
		return nil, err
	}
	logger := c.Logger.With(slog.String("source", name))
	return storagy.New(ctx, src.Driver, storagy.Params(src.Params), storagy.WithLogger(logger))
}

func closeSource(s *storagy.Storagy, logger *slog.Logger) {
	if err := s.Close(); err != nil {
		logger.Warn("failed to close source", slog.String("error", err.Error()))
	}
}
