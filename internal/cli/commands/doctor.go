package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/storagy/internal/cli/output"
	"github.com/leapstack-labs/storagy/internal/config"
	"github.com/leapstack-labs/storagy/pkg/core"
	"github.com/leapstack-labs/storagy/pkg/storagy"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Check statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Parallel int
	Timeout  time.Duration
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that every configured source can be reached",
		Long: `Connect to every source in storagy.yaml and report which ones work.

Each source gets its own adapter and the checks run concurrently.
The command fails when at least one source cannot be reached.`,
		Example: `  # Check all sources
  storagy doctor

  # Output as JSON
  storagy doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 4, "Number of sources checked at once")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Time allowed for each source (0 for no limit)")

	return cmd
}

// DoctorOutput is the structured output of the doctor command.
type DoctorOutput struct {
	Checks  []SourceCheck `json:"checks" yaml:"checks"`
	Healthy int           `json:"healthy" yaml:"healthy"`
	Failed  int           `json:"failed" yaml:"failed"`
}

// SourceCheck is the result of connecting one source.
type SourceCheck struct {
	Source string `json:"source" yaml:"source"`
	Driver string `json:"driver" yaml:"driver"`
	Status string `json:"status" yaml:"status"`
	Empty  *bool  `json:"empty,omitempty" yaml:"empty,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	names := cmdCtx.Cfg.SourceNames()
	if len(names) == 0 {
		r.Warning("no sources configured")
	}

	out := checkSources(cmd.Context(), cmdCtx.Cfg, names, opts, cmdCtx.Logger)

	if err := r.Render(out, func() { renderDoctorText(r, out) }); err != nil {
		return err
	}
	if out.Failed > 0 {
		return fmt.Errorf("%d of %d sources failed", out.Failed, len(out.Checks))
	}
	return nil
}

// checkSources connects every named source concurrently. Results keep the
// order of names.
func checkSources(ctx context.Context, cfg *config.Config, names []string, opts *DoctorOptions, logger *slog.Logger) *DoctorOutput {
	checks := make([]SourceCheck, len(names))

	var g errgroup.Group
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for i, name := range names {
		g.Go(func() error {
			checks[i] = checkSource(ctx, name, cfg.Sources[name], opts.Timeout, logger.With(slog.String("source", name)))
			return nil
		})
	}
	_ = g.Wait()

	out := &DoctorOutput{Checks: checks}
	for _, c := range checks {
		if c.Status == StatusOK {
			out.Healthy++
		} else {
			out.Failed++
		}
	}
	return out
}

func checkSource(ctx context.Context, name string, src config.SourceConfig, timeout time.Duration, logger *slog.Logger) SourceCheck {
	check := SourceCheck{Source: name, Driver: src.Driver, Status: StatusOK}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s, err := storagy.New(ctx, src.Driver, storagy.Params(src.Params), storagy.WithLogger(logger))
	if err != nil {
		logger.Debug("source check failed", slog.String("error", err.Error()))
		check.Status = StatusError
		check.Error = err.Error()
		return check
	}
	defer closeSource(s, logger)

	empty, err := s.IsEmpty(ctx)
	switch {
	case err == nil:
		check.Empty = &empty
	case errors.Is(err, core.ErrUnsupported):
	default:
		check.Status = StatusError
		check.Error = err.Error()
	}
	return check
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println(styles.Header.Render("Source Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 40)))

	for _, c := range out.Checks {
		status := styles.Success.Render("[ok]   ")
		if c.Status != StatusOK {
			status = styles.Error.Render("[fail] ")
		}
		line := fmt.Sprintf("%s%s (%s)", status, styles.Bold.Render(c.Source), c.Driver)
		if c.Empty != nil && *c.Empty {
			line += styles.Muted.Render(" empty")
		}
		r.Println(line)
		if c.Error != "" {
			// Errors may span several lines (available drivers, hints)
			for _, l := range strings.Split(c.Error, "\n") {
				r.Println(styles.Muted.Render("       " + l))
			}
		}
	}

	r.Println(styles.Muted.Render(strings.Repeat("=", 40)))
	r.Printf("%d healthy, %d failed\n", out.Healthy, out.Failed)
}
