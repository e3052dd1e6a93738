// Package query provides the CLI commands that query the connection store.
package query

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/retry"
	"github.com/coral-mesh/connstats/internal/session"
)

// NewQueryCmd creates the 'query' command.
func NewQueryCmd(globals *helpers.GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query recorded connection statistics",
		Long: `Query the connection statistics recorded by 'connstats collect'.

Commands:
  mongo  - Recent connections to MongoDB (port 27017) with pod and service
  conns  - Connections in a time window with custom columns and filters
  sql    - Raw read-only SQL against the store

Examples:
  connstats query mongo
  connstats query mongo --since -5m --format json
  connstats query conns --port 5432 --context pod,service,namespace
  connstats query conns --where 'remote_port >= 8000 && conn_close > 0'
  connstats query sql "SELECT remote_port, COUNT(*) FROM conn_stats GROUP BY 1"
`,
	}

	cmd.AddCommand(NewMongoCmd(globals))
	cmd.AddCommand(NewConnsCmd(globals))
	cmd.AddCommand(NewSQLCmd(globals))

	return cmd
}

// queryRun is one query invocation: resolved environment, an open
// read-only session and the context carrying the query timeout.
type queryRun struct {
	ctx     context.Context
	cancel  context.CancelFunc
	env     *helpers.Env
	session *session.Session
}

// startRun loads the environment and opens a session writing to the
// command's stdout.
func startRun(cmd *cobra.Command, globals *helpers.GlobalFlags, format string) (*queryRun, error) {
	env, err := globals.Load(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	cfg := env.Config

	if !cmd.Flags().Changed("format") {
		format = cfg.Query.Format
	}
	if err := helpers.ValidateFormat(format, helpers.SupportedFormats); err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Query.Timeout)

	s, err := session.Open(ctx, session.Config{
		StorePath: cfg.Storage.Path,
		Format:    helpers.OutputFormat(format),
		Output:    cmd.OutOrStdout(),
		MaxRows:   cfg.Query.MaxRows,
		Retry:     retry.DefaultConfig(),
	}, env.Logger)
	if err != nil {
		cancel()
		return nil, err
	}

	return &queryRun{ctx: ctx, cancel: cancel, env: env, session: s}, nil
}

func (r *queryRun) Close() {
	if err := r.session.Close(); err != nil {
		r.env.Logger.Warn().Err(err).Msg("Failed to close session")
	}
	r.cancel()
}

func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("query failed: %w", err)
}
