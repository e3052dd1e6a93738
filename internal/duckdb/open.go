package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/url"
	"strings"

	duckdbDriver "github.com/marcboeker/go-duckdb"
)

// OpenDB opens a DuckDB database at path. An empty path or ":memory:" opens
// an in-memory database. readOnly opens the file with access_mode=READ_ONLY
// so query sessions can run next to a collector holding the write lock.
func OpenDB(path string, readOnly bool) (*sql.DB, error) {
	connector, err := duckdbDriver.NewConnector(buildDSN(path, readOnly), func(execer driver.ExecerContext) error {
		// Progress bars write to the terminal and corrupt rendered tables.
		// Failing to disable them is cosmetic, so the connection is kept.
		_, _ = execer.ExecContext(context.Background(), "SET enable_progress_bar = false", nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(connector), nil
}

// buildDSN appends access_mode to the path's query parameters, keeping any
// parameters the caller already set.
func buildDSN(path string, readOnly bool) string {
	if path == "" || path == ":memory:" || !readOnly {
		return path
	}

	base, query, _ := strings.Cut(path, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return path
	}
	if !params.Has("access_mode") {
		params.Set("access_mode", "READ_ONLY")
	}

	return base + "?" + params.Encode()
}

// IsLockConflict reports whether err is DuckDB refusing a file lock held by
// another process. It is transient while the other process finishes a write.
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Could not set lock on file") ||
		strings.Contains(msg, "Conflicting lock is held")
}

// IsTransactionConflict reports whether err is a DuckDB write-write conflict
// that succeeds when retried.
func IsTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "TransactionContext Error") ||
		strings.Contains(msg, "serialization") ||
		(strings.Contains(msg, "PRIMARY KEY") && strings.Contains(msg, "constraint violated"))
}
