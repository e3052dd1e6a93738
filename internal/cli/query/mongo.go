package query

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/constants"
	"github.com/coral-mesh/connstats/internal/script"
)

// NewMongoCmd creates the 'query mongo' command.
func NewMongoCmd(globals *helpers.GlobalFlags) *cobra.Command {
	var (
		since  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "mongo",
		Short: "Show recent connections to MongoDB",
		Long: `Show connections to the MongoDB port (27017) seen in the last 30 seconds.

Columns: remote_addr, remote_port, conn_open, conn_close, pod, service.
An empty table means no MongoDB traffic was recorded in the window.

Examples:
  connstats query mongo
  connstats query mongo --since -2m
  connstats query mongo -o csv > mongo.csv
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := startRun(cmd, globals, format)
			if err != nil {
				return err
			}
			defer run.Close()

			if !cmd.Flags().Changed("since") {
				return wrapQueryError(script.MongoConnections(run.ctx, run.session))
			}

			opts := script.DefaultMongoOptions()
			opts.Start = since
			_, err = script.Connections(run.ctx, run.session, opts)
			return wrapQueryError(err)
		},
	}

	cmd.Flags().StringVar(&since, "since", constants.DefaultQueryStart, "Window start: relative duration (-30s, 5m), RFC3339 time or 'now'")
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.SupportedFormats)

	return cmd
}
