// Package config implements the 'connstats config' command family.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/config"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd(globals *helpers.GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage connstats configuration",
		Long: `Manage connstats configuration.

Configuration Priority:
  1. Command-line flags (highest)
  2. CONNSTATS_* environment variables
  3. Config file (~/.connstats/config.yaml)
  4. Built-in defaults

Environment Variables:
  CONNSTATS_CONFIG  Override config directory (default: ~/.connstats)
  CONNSTATS_DB      Override the store path`,
	}

	cmd.AddCommand(newViewCmd(globals))
	cmd.AddCommand(newInitCmd(globals))
	cmd.AddCommand(newValidateCmd(globals))

	return cmd
}

func newViewCmd(globals *helpers.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		Long: `Display the configuration after defaults, the config file, environment
variables and global flags have been merged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := globals.Load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(env.Config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", globals.ConfigPath(), data)
			return err
		},
	}
}

func newInitCmd(globals *helpers.GlobalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globals.ConfigPath()

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check config file: %w", err)
			}

			if err := config.SaveFile(path, config.DefaultConfig()); err != nil {
				return err
			}

			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newValidateCmd(globals *helpers.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := globals.Load(cmd.ErrOrStderr()); err != nil {
				return err
			}
			cmd.Printf("✓ %s is valid\n", globals.ConfigPath())
			return nil
		},
	}
}
