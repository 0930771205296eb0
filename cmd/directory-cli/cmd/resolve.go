// cmd/directory-cli/cmd/resolve.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"visa-directory/internal/directory/profile"
)

func newResolveCmd(root *rootOptions) *cobra.Command {
	var id profile.Identifier

	c := &cobra.Command{
		Use:   "resolve [location] [name]",
		Short: "Resolve an id, slug pair or legacy fragment to one business",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				id.LocationSlug = args[0]
			}
			if len(args) > 1 {
				id.NameSlug = args[1]
			}
			if id.IsZero() {
				return fmt.Errorf("pass --id or a location and name slug")
			}

			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Directory.ResolveProfile(commandContext(cmd), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	c.Flags().StringVar(&id.ID, "id", "", "business id")
	return c
}
