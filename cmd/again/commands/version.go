package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/again/internal/build"
)

// versionLine is shared by the version subcommand and the --version flag.
func versionLine() string {
	return fmt.Sprintf("again version %s (commit: %s, date: %s)", build.Version, build.Commit, build.Date)
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionLine())
		},
	}
}
