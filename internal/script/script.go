// Package script holds the connection queries run against a Platform.
//
// MongoConnections loads the last 30 seconds of conn_stats, keeps the
// remote endpoint and open/close counters, attaches the pod and service of
// the owning process and displays the connections to the MongoDB port.
package script

import (
	"context"
	"fmt"

	"github.com/coral-mesh/connstats/internal/constants"
	"github.com/coral-mesh/connstats/internal/dataframe"
)

// Platform loads tables and renders frames. *session.Session implements it.
type Platform interface {
	// Load returns the rows of table within [start, end]. An empty end
	// means now. The platform validates the range.
	Load(ctx context.Context, table, start, end string) (*dataframe.Frame, error)
	// Display renders a frame under a name.
	Display(ctx context.Context, name string, f *dataframe.Frame) error
}

// OutputName is the name frames are displayed under.
const OutputName = "output"

// Options parameterise a connection query.
type Options struct {
	Table   string
	Start   string
	End     string
	Columns []string
	Labels  []dataframe.ContextLabel
	// Port keeps only rows whose remote_port equals it. Zero keeps all.
	Port int64
	// Where is an optional CEL expression applied after Port.
	Where string
}

// DefaultColumns are the columns MongoConnections keeps.
var DefaultColumns = []string{"remote_addr", "remote_port", "conn_open", "conn_close"}

// DefaultMongoOptions returns the parameters of MongoConnections.
func DefaultMongoOptions() Options {
	return Options{
		Table:   constants.ConnStatsTable,
		Start:   constants.DefaultQueryStart,
		Columns: DefaultColumns,
		Labels:  []dataframe.ContextLabel{dataframe.LabelPod, dataframe.LabelService},
		Port:    constants.MongoDBPort,
	}
}

// MongoConnections displays recent connections to MongoDB.
func MongoConnections(ctx context.Context, p Platform) error {
	_, err := Connections(ctx, p, DefaultMongoOptions())
	return err
}

// Connections runs load, project, enrich, filter and display in that order
// and returns the displayed frame. Errors from the platform are returned
// as is, wrapped with the failing step.
func Connections(ctx context.Context, p Platform, opts Options) (*dataframe.Frame, error) {
	df, err := p.Load(ctx, opts.Table, opts.Start, opts.End)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.Table, err)
	}

	df, err = df.Select(opts.Columns...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	for _, label := range opts.Labels {
		df, err = df.WithContext(label, "")
		if err != nil {
			return nil, fmt.Errorf("context %s: %w", label, err)
		}
	}

	if opts.Port != 0 {
		df, err = df.Where(dataframe.Eq("remote_port", opts.Port))
		if err != nil {
			return nil, fmt.Errorf("filter remote_port: %w", err)
		}
	}

	if opts.Where != "" {
		df, err = df.Where(dataframe.Expr(opts.Where))
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
	}

	if err := p.Display(ctx, OutputName, df); err != nil {
		return nil, err
	}
	return df, nil
}
