package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"vaultview/internal/navigation"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Print the navigation tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active, _ := cmd.Flags().GetString("active")

			for _, tag := range navigation.NewRail(navigation.Links{}).Tags(active) {
				marker := " "
				if tag.Active {
					marker = "*"
				}
				line := fmt.Sprintf("%s %-12s %-10s %s", marker, tag.ID, tag.Kind, tag.Label)
				if tag.URL != "" {
					line += "  " + tag.URL
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringP("active", "a", "all", "Tag to mark as active")
	return cmd
}
