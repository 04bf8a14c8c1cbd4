package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"vaultview/internal/subtitle"
)

func newCuesCmd(logger func() zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cues <file|url>",
		Short: "Parse an SRT file and print its cues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSubtitle(cmd, args[0], logger())
			if err != nil {
				return err
			}

			cues := subtitle.Parse(string(data))
			at, _ := cmd.Flags().GetFloat64("at")
			if cmd.Flags().Changed("at") {
				i, ok := subtitle.Active(cues, at)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "no cue at %s\n", subtitle.FormatClock(at))
					return nil
				}
				cues = cues[i : i+1]
			}

			for _, cue := range cues {
				fmt.Fprintf(cmd.OutOrStdout(), "%s --> %s  %s\n",
					subtitle.FormatClock(cue.Start), subtitle.FormatClock(cue.End), cue.Text)
			}
			return nil
		},
	}

	cmd.Flags().Float64("at", 0, "Only print the cue active at this many seconds")
	return cmd
}

func readSubtitle(cmd *cobra.Command, target string, logger zerolog.Logger) ([]byte, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return os.ReadFile(target)
	}

	fetcher := subtitle.NewFetcher(&http.Client{}, subtitle.FetcherConfig{}, logger)
	data, _, err := fetcher.Fetch(cmd.Context(), target)
	return data, err
}
