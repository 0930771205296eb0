// cmd/directory-cli/cmd/reviews.go
package cmd

import (
	"github.com/spf13/cobra"

	"visa-directory/internal/directory/profile"
	"visa-directory/internal/directory/reviews"
)

func newReviewsCmd(root *rootOptions) *cobra.Command {
	var offset, limit int

	c := &cobra.Command{
		Use:   "reviews <business-id>",
		Short: "Show the review window for a business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := commandContext(cmd)
			res, err := a.Directory.ResolveProfile(ctx, profile.Identifier{ID: args[0]})
			if err != nil {
				return err
			}
			page, err := a.Directory.GetReviews(ctx, res.Business, offset, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	c.Flags().IntVar(&offset, "offset", 0, "first review to show")
	c.Flags().IntVar(&limit, "limit", reviews.DefaultLimit, "number of reviews to show")
	return c
}
