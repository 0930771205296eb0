// cmd/directory-cli/cmd/sources.go
package cmd

import (
	"github.com/spf13/cobra"

	"visa-directory/internal/directory/recordsource"
)

type surveyReport struct {
	Selected string                 `json:"selected,omitempty"`
	Attempts []recordsource.Attempt `json:"attempts"`
}

func newSourcesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Try every configured source and report which one would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report := surveyReport{Attempts: a.Chain.Survey(commandContext(cmd))}
			for _, attempt := range report.Attempts {
				if attempt.Accepted {
					report.Selected = attempt.Source
					break
				}
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
