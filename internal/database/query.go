package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Result is a generic query result in column order.
type Result struct {
	Columns []string
	Rows    [][]any
	// Truncated is set when more rows were available than returned.
	Truncated bool
}

// Query runs a single SQL statement and returns at most maxRows rows
// (maxRows <= 0 means all). On a read-only store DuckDB rejects writes.
func (s *Store) Query(ctx context.Context, query string, maxRows int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	s.logger.Debug().Str("sql", query).Int("max_rows", maxRows).Msg("Executing query")

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanResult(rows, maxRows)
}

func scanResult(rows *sql.Rows, maxRows int) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		if maxRows > 0 && len(result.Rows) == maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}
