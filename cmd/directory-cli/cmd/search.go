// cmd/directory-cli/cmd/search.go
package cmd

import (
	"github.com/spf13/cobra"

	"visa-directory/internal/models"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	q := models.DefaultQuery()
	var sortBy, sortOrder string
	pageCount := 1

	c := &cobra.Command{
		Use:   "search",
		Short: "Filter, sort and page the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			q.SortBy = models.SortField(sortBy)
			q.SortOrder = models.SortOrder(sortOrder)
			page, err := a.Directory.Search(commandContext(cmd), q, pageCount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	c.Flags().StringVarP(&q.SearchTerm, "search", "s", "", "substring of name, address or category")
	c.Flags().StringVarP(&q.CategoryFilter, "category", "c", models.CategoryAll, "category filter")
	c.Flags().Float64Var(&q.MinRating, "min-rating", 0, "minimum rating, 0 admits unrated businesses")
	c.Flags().StringVar(&sortBy, "sort-by", string(models.SortByRating), "name, rating, reviews or reports")
	c.Flags().StringVar(&sortOrder, "sort-order", string(models.SortDesc), "asc or desc")
	c.Flags().IntVarP(&pageCount, "page", "p", 1, "number of pages to show")
	return c
}
