package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"vaultview/internal/catalog"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items passing a filter and query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			query, _ := cmd.Flags().GetString("query")
			target, _ := cmd.Flags().GetInt("target")

			sel, err := catalog.ParseSelector(filter)
			if err != nil {
				return err
			}

			seed, err := loadSeed(cmd)
			if err != nil {
				return err
			}

			items := catalog.New(catalog.Expand(seed, target)).Filter(sel, query, nil)
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tFORMAT\tLINKS\tCATEGORIES\tNAME")
			for _, item := range items {
				categories := lo.Map(item.Categories, func(c catalog.Category, _ int) string {
					return string(c)
				})
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					item.ID, item.Type, item.Format, len(item.Sources()),
					strings.Join(categories, ","), item.Name)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d items\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringP("filter", "f", catalog.TagAll, "Category, media type, \"all\" or \"info\"")
	cmd.Flags().StringP("query", "q", "", "Case-insensitive search over name and format")
	cmd.Flags().IntP("target", "t", 239, "Pad the catalog to this many items")

	return cmd
}
