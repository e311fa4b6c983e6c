package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/storagy/pkg/core"
	"github.com/spf13/cobra"
)

// RowsOutput is the structured output of the all command.
type RowsOutput struct {
	Source string   `json:"source" yaml:"source"`
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Rows   [][]any  `json:"rows" yaml:"rows"`
	Count  int      `json:"count" yaml:"count"`
}

// AllOptions holds options for the all command.
type AllOptions struct {
	Limit int
}

// NewAllCommand creates the all command.
func NewAllCommand() *cobra.Command {
	opts := &AllOptions{}
	cmd := &cobra.Command{
		Use:   "all <source>",
		Short: "Print every row of a source",
		Long: `Connect to a configured source and print every row it holds.

When the driver exposes field names they are used as the table header.`,
		Example: `  # Print the people source as a table
  storagy all people -o table

  # First 10 rows as JSON
  storagy all people --limit 10 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAll(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum number of rows to print (0 for all)")

	return cmd
}

func runAll(cmd *cobra.Command, name string, opts *AllOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	src, err := cmdCtx.Open(ctx, name)
	if err != nil {
		return err
	}
	defer closeSource(src, cmdCtx.Logger)

	rows, err := src.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	fields, err := src.FieldList(ctx)
	if err != nil && !errors.Is(err, core.ErrUnsupported) && !errors.Is(err, core.ErrEmptySource) {
		return fmt.Errorf("failed to read fields of %s: %w", name, err)
	}

	out := RowsOutput{
		Source: name,
		Fields: fields,
		Rows:   make([][]any, len(rows)),
		Count:  len(rows),
	}
	for i, row := range rows {
		out.Rows[i] = row
	}

	return r.Render(out, func() {
		r.Table(header(fields, out.Rows), out.Rows)
		r.Printf("(%d rows)\n", out.Count)
	})
}

// header returns fields, or positional names when the source has none.
func header(fields []string, rows [][]any) []string {
	if len(fields) > 0 {
		return fields
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	names := make([]string, width)
	for i := range names {
		names[i] = fmt.Sprintf("col%d", i+1)
	}
	return names
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <source>",
		Short: "Print the field names of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			src, err := cmdCtx.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeSource(src, cmdCtx.Logger)

			fields, err := src.FieldList(ctx)
			if err != nil {
				return err
			}

			return r.Render(fields, func() {
				rows := make([][]any, len(fields))
				for i, f := range fields {
					rows[i] = []any{i + 1, f}
				}
				r.Table([]string{"#", "field"}, rows)
			})
		},
	}
}

// EmptyOutput is the structured output of the empty command.
type EmptyOutput struct {
	Source string `json:"source" yaml:"source"`
	Empty  bool   `json:"empty" yaml:"empty"`
}

// NewEmptyCommand creates the empty command.
func NewEmptyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "empty <source>",
		Short: "Report whether a source holds no data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			src, err := cmdCtx.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeSource(src, cmdCtx.Logger)

			empty, err := src.IsEmpty(ctx)
			if err != nil {
				return err
			}

			return r.Render(EmptyOutput{Source: args[0], Empty: empty}, func() {
				r.Println(empty)
			})
		},
	}
}
