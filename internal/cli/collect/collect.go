// Package collect provides the 'collect' command.
package collect

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/collector"
	"github.com/coral-mesh/connstats/internal/config"
	"github.com/coral-mesh/connstats/internal/database"
	"github.com/coral-mesh/connstats/internal/privilege"
	"github.com/coral-mesh/connstats/internal/retry"
)

// NewCollectCmd creates the 'collect' command.
func NewCollectCmd(globals *helpers.GlobalFlags) *cobra.Command {
	var (
		interval  time.Duration
		retention time.Duration
		once      bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Record host connections into the store",
		Long: `Sample the sockets of this host at a fixed interval and record them in
the conn_stats table, together with the pod, service, namespace, container,
node and command line of each owning process.

Sockets owned by other users are only attributed to their process when
running with enough privileges (root or CAP_SYS_PTRACE).

Examples:
  connstats collect
  connstats collect --interval 2s --retention 30m
  connstats collect --once
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := globals.Load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger := env.Logger

			cfg := collectorConfig(env.Config)
			if cmd.Flags().Changed("interval") {
				cfg.Interval = interval
			}
			if cmd.Flags().Changed("retention") {
				cfg.Retention = retention
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sink := collector.NewStoreSink(database.Options{
				Path:  env.Config.Storage.Path,
				Retry: retry.DefaultConfig(),
			}, logger)
			c := collector.New(collector.HostSource{}, collector.NewHostResolver(ctx), sink, cfg, logger)

			if once {
				return c.Collect(ctx)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				select {
				case sig := <-sigChan:
					logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal - stopping collector")
					cancel()
				case <-ctx.Done():
				}
			}()

			if !privilege.IsRoot() {
				logger.Warn().Msg("Not running as root - sockets of other users will not be attributed to a process")
			}
			logger.Info().Str("store", env.Config.Storage.Path).Msg("Collecting connections - press Ctrl+C to stop")

			if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	defaults := config.DefaultConfig().Collector
	cmd.Flags().DurationVar(&interval, "interval", defaults.Interval, "Sampling interval (overrides config)")
	cmd.Flags().DurationVar(&retention, "retention", defaults.Retention, "Drop samples older than this (overrides config)")
	cmd.Flags().BoolVar(&once, "once", false, "Take a single sample and exit")

	return cmd
}

func collectorConfig(cfg *config.Config) collector.Config {
	return collector.Config{
		Interval:       cfg.Collector.Interval,
		Retention:      cfg.Collector.Retention,
		Kind:           cfg.Collector.Kind,
		ResolveWorkers: cfg.Collector.ResolveWorkers,
	}
}
