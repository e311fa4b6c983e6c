package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display storagy version and the drivers compiled into this build.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "storagy v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Uniform data-source access built with Go")
		},
	}
}
