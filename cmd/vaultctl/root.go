package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"vaultview/internal/catalog"
)

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Inspect the media vault catalog and subtitle files",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("seed", "", "Seed file to use instead of the embedded catalog")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger = logger.Level(zerolog.DebugLevel)
		}
	}

	root.AddCommand(
		newListCmd(),
		newTagsCmd(),
		newCuesCmd(func() zerolog.Logger { return logger }),
	)

	return root
}

func loadSeed(cmd *cobra.Command) ([]catalog.MediaItem, error) {
	path, _ := cmd.Flags().GetString("seed")
	if path == "" {
		return catalog.DefaultSeed()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return catalog.LoadSeed(f)
}
