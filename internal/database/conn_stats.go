package database

import (
	"context"
	"fmt"
	"time"

	"github.com/coral-mesh/connstats/internal/constants"
	"github.com/coral-mesh/connstats/internal/duckdb"
	"github.com/coral-mesh/connstats/internal/timerange"
)

// ConnStat is one sample of one connection.
type ConnStat struct {
	Time       time.Time `duckdb:"time_"`
	UPID       string    `duckdb:"upid"`
	RemoteAddr string    `duckdb:"remote_addr"`
	RemotePort int64     `duckdb:"remote_port"`
	LocalAddr  string    `duckdb:"local_addr"`
	LocalPort  int64     `duckdb:"local_port"`
	Protocol   string    `duckdb:"protocol"`
	TraceRole  string    `duckdb:"trace_role"`
	// ConnOpen is 1 in the sample where the connection was first seen.
	ConnOpen int64 `duckdb:"conn_open"`
	// ConnClose is 1 in the sample where the connection disappeared.
	ConnClose  int64 `duckdb:"conn_close"`
	ConnActive int64 `duckdb:"conn_active"`
}

// InsertConnStats appends samples in one transaction.
func (s *Store) InsertConnStats(ctx context.Context, stats []*ConnStat) error {
	if err := s.connStats.BatchWrite(ctx, stats); err != nil {
		return fmt.Errorf("failed to insert conn stats: %w", err)
	}
	return nil
}

// ConnStatsForPort returns samples in the window whose remote port matches,
// oldest first.
func (s *Store) ConnStatsForPort(ctx context.Context, w timerange.Window, port int64) ([]*ConnStat, error) {
	return s.connStats.Find(ctx, duckdb.NewQueryBuilder(constants.ConnStatsTable).
		TimeRange(w.Start, w.End).
		Eq("remote_port", port).
		OrderBy("time_"))
}

// QueryWindow selects every column of table for rows inside w. The time
// column is time_ when present, otherwise last_seen. limit <= 0 means no
// limit.
func (s *Store) QueryWindow(ctx context.Context, table string, w timerange.Window, limit int) (*Result, error) {
	columns, err := s.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}

	timeColumn := ""
	for _, c := range columns {
		if c == "time_" || (c == "last_seen" && timeColumn == "") {
			timeColumn = c
		}
	}
	if timeColumn == "" {
		return nil, fmt.Errorf("table %s has no time column", table)
	}

	query, args, err := duckdb.NewQueryBuilder(table).
		Select(columns...).
		TimeColumn(timeColumn).
		TimeRange(w.Start, w.End).
		OrderBy(timeColumn).
		Limit(limit).
		Build()
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("sql", duckdb.InterpolateQuery(query, args)).Msg("Querying window")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	return scanResult(rows, 0)
}

// PruneBefore deletes conn_stats samples older than cutoff and process
// metadata not seen since cutoff. It returns the number of samples removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conn_stats WHERE time_ < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune conn stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM process_metadata WHERE last_seen < ?", cutoff); err != nil {
		return n, fmt.Errorf("failed to prune process metadata: %w", err)
	}

	return n, nil
}
