// Package session is the explicit query-execution context: it owns a
// read-only handle on the store and an output sink for the lifetime of one
// invocation.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/database"
	"github.com/coral-mesh/connstats/internal/dataframe"
	"github.com/coral-mesh/connstats/internal/duckdb"
	"github.com/coral-mesh/connstats/internal/retry"
	"github.com/coral-mesh/connstats/internal/timerange"
)

// ErrUnknownTable is returned by Load for a table the store does not have.
var ErrUnknownTable = errors.New("unknown table")

// Config configures a session.
type Config struct {
	// StorePath is the DuckDB file. Empty opens a private in-memory store.
	StorePath string
	Format    helpers.OutputFormat
	// Output receives rendered frames. Defaults to os.Stdout.
	Output io.Writer
	// Styled forces terminal styling on or off. Nil detects it from Output.
	Styled  *bool
	MaxRows int
	Retry   retry.Config
}

// Session loads tables and displays frames.
type Session struct {
	id        string
	store     *database.Store
	formatter helpers.Formatter
	output    io.Writer
	maxRows   int
	logger    zerolog.Logger
	now       func() time.Time
}

// Open creates a session over the store at cfg.StorePath.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Session, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Format == "" {
		cfg.Format = helpers.FormatTable
	}
	styled := helpers.IsTerminal(cfg.Output)
	if cfg.Styled != nil {
		styled = *cfg.Styled
	}

	formatter, err := helpers.NewFormatter(cfg.Format, styled)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger = logger.With().Str("component", "session").Str("session_id", id).Logger()

	store, err := database.Open(ctx, database.Options{
		Path:     cfg.StorePath,
		ReadOnly: cfg.StorePath != "",
		Retry:    cfg.Retry,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	logger.Debug().Str("store", cfg.StorePath).Str("format", string(cfg.Format)).Msg("Session opened")

	return &Session{
		id:        id,
		store:     store,
		formatter: formatter,
		output:    cfg.Output,
		maxRows:   cfg.MaxRows,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Store exposes the underlying store.
func (s *Session) Store() *database.Store {
	return s.store
}

// Close releases the store.
func (s *Session) Close() error {
	s.logger.Debug().Msg("Session closed")
	return s.store.Close()
}

// Load reads the rows of table whose time falls in [start, end]. start and
// end are relative durations ("-30s"), RFC3339 times or "now"; an empty end
// means now. Now is read once, so the window does not move while the query
// runs. When the table has a upid column, each row carries the context of
// its process.
func (s *Session) Load(ctx context.Context, table, start, end string) (*dataframe.Frame, error) {
	if !duckdb.ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	w, err := timerange.Parse(start, end, s.now())
	if err != nil {
		return nil, err
	}

	cols, err := s.store.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	// The row cap applies at Display, after filtering; capping here would
	// drop the newest rows before a filter sees them.
	res, err := s.store.QueryWindow(ctx, table, w, 0)
	if err != nil {
		return nil, err
	}

	rows := make([]dataframe.Row, len(res.Rows))
	for i, values := range res.Rows {
		rows[i] = dataframe.Row{Values: values}
	}
	if err := s.attachContext(ctx, res.Columns, rows); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("table", table).
		Stringer("window", w).
		Int("rows", len(rows)).
		Msg("Loaded table")

	return dataframe.New(res.Columns, rows)
}

// SQL runs a raw read-only statement. Rows carry no context. The second
// return value reports whether the result was cut at the row limit.
func (s *Session) SQL(ctx context.Context, query string) (*dataframe.Frame, bool, error) {
	res, err := s.store.Query(ctx, query, s.maxRows)
	if err != nil {
		return nil, false, err
	}

	rows := make([]dataframe.Row, len(res.Rows))
	for i, values := range res.Rows {
		rows[i] = dataframe.Row{Values: values}
	}
	f, err := dataframe.New(res.Columns, rows)
	if err != nil {
		return nil, false, err
	}
	return f, res.Truncated, nil
}

func (s *Session) attachContext(ctx context.Context, columns []string, rows []dataframe.Row) error {
	idx := -1
	for i, c := range columns {
		if c == "upid" {
			idx = i
			break
		}
	}
	if idx < 0 || len(rows) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var upids []string
	for _, r := range rows {
		if upid, ok := r.Values[idx].(string); ok && !seen[upid] {
			seen[upid] = true
			upids = append(upids, upid)
		}
	}

	procs, err := s.store.ProcessesByUPID(ctx, upids)
	if err != nil {
		return fmt.Errorf("failed to resolve context: %w", err)
	}

	for i := range rows {
		upid, _ := rows[i].Values[idx].(string)
		if p, ok := procs[upid]; ok {
			rows[i].Context = ContextOf(p)
		}
	}
	return nil
}

// ContextOf maps process metadata to context labels.
func ContextOf(p *database.ProcessMetadata) dataframe.Context {
	return dataframe.Context{
		dataframe.LabelPod:       p.Pod,
		dataframe.LabelService:   p.Service,
		dataframe.LabelNamespace: p.Namespace,
		dataframe.LabelContainer: p.Container,
		dataframe.LabelNode:      p.Node,
		dataframe.LabelCmdline:   p.Cmdline,
	}
}

// Display renders f to the session output. Frames longer than MaxRows are
// cut to their first MaxRows rows and a warning is logged.
func (s *Session) Display(_ context.Context, name string, f *dataframe.Frame) error {
	if s.maxRows > 0 && f.Len() > s.maxRows {
		s.logger.Warn().
			Str("name", name).
			Int("rows", f.Len()).
			Int("max_rows", s.maxRows).
			Msg("Result truncated to max rows")
		f = f.Head(s.maxRows)
	}

	if err := s.formatter.Format(f, s.output); err != nil {
		return fmt.Errorf("failed to display %s: %w", name, err)
	}

	s.logger.Debug().
		Str("name", name).
		Int("rows", f.Len()).
		Str("fingerprint", fmt.Sprintf("%016x", f.Fingerprint())).
		Msg("Displayed frame")
	return nil
}
