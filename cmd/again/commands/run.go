package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.trai.ch/again/internal/app"
	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] INPUT OUTPUT -- COMMAND [ARGS...]",
		Short: "Replay a cached command output, or execute and capture it",
		Long: `Fingerprints the INPUT path together with the command line. If a matching
entry exists in the store, its captured tree is restored to OUTPUT without
running anything. Otherwise the command executes, and on success OUTPUT is
captured into the store for the next identical run.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}

			// Everything after -- is the command line to cache.
			dash := cmd.ArgsLenAtDash()
			if dash != 2 || len(args) < 3 {
				return zerr.New("expected INPUT OUTPUT -- COMMAND [ARGS...]")
			}

			noIgnore, _ := cmd.Flags().GetBool("no-ignore")
			hidden, _ := cmd.Flags().GetBool("hidden")
			cachePath, _ := cmd.Flags().GetString("cache-path")

			report, err := c.app.Run(cmd.Context(), app.RunOptions{
				InputPath:     args[0],
				OutputPath:    args[1],
				Command:       args[2],
				Args:          args[3:],
				NoIgnore:      noIgnore,
				IncludeHidden: hidden,
				CachePath:     cachePath,
			})
			if err != nil {
				if errors.Is(err, domain.ErrCommandFailed) && report != nil {
					c.exitCode = report.ExitCode
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().Bool("no-ignore", false, "Do not respect .gitignore files when hashing the input")
	cmd.Flags().Bool("hidden", false, "Include hidden files when hashing the input")
	cmd.Flags().String("cache-path", "", "Cache store root (default "+domain.DefaultStorePath()+")")

	return cmd
}
