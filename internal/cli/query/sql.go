package query

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
)

// NewSQLCmd creates the 'query sql' command.
func NewSQLCmd(globals *helpers.GlobalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Execute raw SQL query",
		Long: `Execute a raw SQL query against the local DuckDB store.

The store is opened read-only and results are cut at query.max_rows.
Tables: conn_stats, process_metadata.

Examples:
  connstats query sql "SELECT remote_port, COUNT(*) FROM conn_stats GROUP BY remote_port"
  connstats query sql "SELECT service, cmdline FROM process_metadata ORDER BY last_seen DESC"
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := startRun(cmd, globals, format)
			if err != nil {
				return err
			}
			defer run.Close()

			f, truncated, err := run.session.SQL(run.ctx, args[0])
			if err != nil {
				return wrapQueryError(err)
			}
			if truncated {
				run.env.Logger.Warn().
					Int("max_rows", run.env.Config.Query.MaxRows).
					Msg("Result truncated - raise query.max_rows to see more")
			}

			return run.session.Display(run.ctx, "sql", f)
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.SupportedFormats)
	return cmd
}
