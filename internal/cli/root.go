// Package cli wires the connstats commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/connstats/internal/cli/collect"
	"github.com/coral-mesh/connstats/internal/cli/config"
	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/cli/query"
	"github.com/coral-mesh/connstats/pkg/version"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	globals := &helpers.GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:   "connstats",
		Short: "Connection statistics for this host, queryable by pod and service",
		Long: `connstats records the network connections of this host in a local DuckDB
store and answers questions about them.

  connstats collect        # sample connections every 5s
  connstats query mongo    # who talked to MongoDB in the last 30s?
  connstats query conns    # any window, columns, context labels, filters`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	globals.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(query.NewQueryCmd(globals))
	rootCmd.AddCommand(collect.NewCollectCmd(globals))
	rootCmd.AddCommand(config.NewConfigCmd(globals))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				cmd.Println(version.String())
				return
			}
			cmd.Printf("connstats version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print a single line")
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
