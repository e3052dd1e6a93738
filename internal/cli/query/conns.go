package query

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/constants"
	"github.com/coral-mesh/connstats/internal/dataframe"
	"github.com/coral-mesh/connstats/internal/script"
)

// NewConnsCmd creates the 'query conns' command.
func NewConnsCmd(globals *helpers.GlobalFlags) *cobra.Command {
	var (
		timeFlags helpers.TimeFlags
		table     string
		port      int64
		columns   []string
		labels    []string
		where     string
		format    string
	)

	known := make([]string, len(dataframe.ContextLabels))
	for i, l := range dataframe.ContextLabels {
		known[i] = string(l)
	}

	cmd := &cobra.Command{
		Use:   "conns",
		Short: "Query connections with custom columns, context and filters",
		Long: `Query recorded connections in a time window.

Rows are projected to --columns, enriched with one column per --context
label, then filtered by --port and the CEL expression given to --where.
Every selected column and context column is a variable in the expression.

Examples:
  connstats query conns
  connstats query conns --since -10m --to -5m --port 5432
  connstats query conns --columns remote_addr,remote_port,trace_role --context service,node
  connstats query conns --where 'trace_role == "server" && conn_close > 0'
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := script.Options{
				Table:   table,
				Start:   timeFlags.Since,
				End:     timeFlags.To,
				Columns: columns,
				Port:    port,
				Where:   where,
			}

			run, err := startRun(cmd, globals, format)
			if err != nil {
				return err
			}
			defer run.Close()

			if !cmd.Flags().Changed("since") {
				opts.Start = run.env.Config.Query.Since
			}
			if !cmd.Flags().Changed("context") {
				labels = run.env.Config.Query.Labels
			}
			for _, l := range labels {
				label, err := dataframe.ParseContextLabel(l)
				if err != nil {
					return fmt.Errorf("invalid --context: %w", err)
				}
				opts.Labels = append(opts.Labels, label)
			}

			_, err = script.Connections(run.ctx, run.session, opts)
			return wrapQueryError(err)
		},
	}

	timeFlags.AddFlags(cmd.Flags(), constants.DefaultQueryStart)
	cmd.Flags().StringVar(&table, "table", constants.ConnStatsTable, "Table to query")
	cmd.Flags().Int64Var(&port, "port", 0, "Keep only rows with this remote port (0 keeps all)")
	cmd.Flags().StringSliceVar(&columns, "columns", script.DefaultColumns, "Columns to select, in order")
	helpers.AddContextFlag(cmd, &labels, nil, known)
	cmd.Flags().StringVar(&where, "where", "", "CEL filter expression over the selected columns")
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.SupportedFormats)

	return cmd
}
