// cmd/directory-cli/cmd/registry.go
package cmd

import (
	"github.com/spf13/cobra"

	"visa-directory/pkg/registry"
)

type registrySummary struct {
	Version    string   `json:"version"`
	Activities []string `json:"activities"`
	Buckets    int      `json:"buckets"`
}

func newRegistryCmd(root *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "registry",
		Short: "Inspect an activity registry",
	}
	c.AddCommand(&cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a registry file and summarize it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(args[0])
			if err != nil {
				return err
			}
			summary := registrySummary{Version: reg.Version, Buckets: len(reg.Buckets)}
			for _, a := range reg.Activities {
				summary.Activities = append(summary.Activities, a.TaskType)
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	})
	return c
}
