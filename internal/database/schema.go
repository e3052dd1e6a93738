package database

import (
	"context"
	"fmt"
)

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS conn_stats (
		time_        TIMESTAMP NOT NULL,
		upid         VARCHAR NOT NULL,
		remote_addr  VARCHAR,
		remote_port  BIGINT,
		local_addr   VARCHAR,
		local_port   BIGINT,
		protocol     VARCHAR,
		trace_role   VARCHAR,
		conn_open    BIGINT,
		conn_close   BIGINT,
		conn_active  BIGINT
	);

	CREATE INDEX IF NOT EXISTS idx_conn_stats_time ON conn_stats(time_);

	CREATE TABLE IF NOT EXISTS process_metadata (
		upid        VARCHAR PRIMARY KEY,
		pid         BIGINT,
		pod         VARCHAR,
		service     VARCHAR,
		namespace   VARCHAR,
		container   VARCHAR,
		node        VARCHAR,
		cmdline     VARCHAR,
		first_seen  TIMESTAMP,
		last_seen   TIMESTAMP
	);
`

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// TableColumns returns the columns of table in definition order, or nil
// when the table does not exist.
func (s *Store) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return columns, nil
}
