package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/again/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the cache store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")
			cachePath, _ := cmd.Flags().GetString("cache-path")

			return c.app.Clean(cmd.Context(), app.CleanOptions{
				All:       all,
				CachePath: cachePath,
			})
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Also remove the metadata directory")
	cmd.Flags().String("cache-path", "", "Cache store root to remove")

	return cmd
}
