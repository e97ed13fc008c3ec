// Package commands implements the CLI commands for the again cache tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/again/internal/app"
	"go.trai.ch/again/internal/build"
	"go.trai.ch/again/internal/engine/runner"
)

// CLI represents the command line interface for again.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	// exitCode records the exit code of a failed cached command so main
	// can propagate it verbatim.
	exitCode int
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, opts app.RunOptions) (*runner.Report, error)
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// VerbositySetter adjusts log verbosity from the -v flag.
type VerbositySetter interface {
	SetVerbosity(v int)
}

// New creates a new CLI instance with the given app. verbosity may be nil.
func New(a Application, verbosity VerbositySetter) *CLI {
	rootCmd := &cobra.Command{
		Use:           "again",
		Short:         "Replay command outputs from a content-addressed cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbosity != nil {
				v, _ := cmd.Flags().GetCount("verbose")
				verbosity.SetVerbosity(v)
			}
		},
	}

	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity")

	rootCmd.SetVersionTemplate(versionLine() + "\n")
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// ExitCode returns the exit code of a failed cached command. Falls back to
// 1 when none was recorded.
func (c *CLI) ExitCode() int {
	if c.exitCode == 0 {
		return 1
	}
	return c.exitCode
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
