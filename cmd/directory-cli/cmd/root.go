// Package cmd holds the directory-cli commands. Each command assembles the directory from
// the same configuration the server uses and prints JSON.
package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"visa-directory/internal/app"
	"visa-directory/internal/common/config"
	"visa-directory/internal/common/logger"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the command tree. Tests build a fresh tree per case.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "directory-cli",
		Short:         "Operate the visa business directory",
		Long:          "Search, resolve and inspect the visa business directory using the server's configuration.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newSearchCmd(opts))
	root.AddCommand(newResolveCmd(opts))
	root.AddCommand(newReviewsCmd(opts))
	root.AddCommand(newSourcesCmd(opts))
	root.AddCommand(newSnapshotCmd(opts))
	root.AddCommand(newRegistryCmd(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

func (o *rootOptions) logger(cmd *cobra.Command) logger.Logger {
	if !o.verbose {
		return logger.NewNoOpLogger()
	}
	return logger.NewStructured("debug", "console")
}

// openApp assembles the directory with a single connection attempt per backend.
func (o *rootOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(commandContext(cmd), cfg, app.Options{
		ServiceName:     "directory-cli",
		ConnectAttempts: 1,
	}, o.logger(cmd))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
