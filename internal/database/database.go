// Package database stores connection statistics and process metadata in
// a DuckDB file.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/connstats/internal/constants"
	"github.com/coral-mesh/connstats/internal/duckdb"
	"github.com/coral-mesh/connstats/internal/retry"
)

// ErrStoreNotFound is returned when a read-only open targets a missing file.
var ErrStoreNotFound = errors.New("store not found")

// Store wraps a DuckDB connection holding the connstats tables.
type Store struct {
	db        *sql.DB
	path      string
	readOnly  bool
	logger    zerolog.Logger
	connStats *duckdb.Table[ConnStat]
	processes *duckdb.Table[ProcessMetadata]
}

// Options configures Open.
type Options struct {
	// Path is the DuckDB file. Empty opens an in-memory store.
	Path string
	// ReadOnly opens the file without taking the write lock. The schema is
	// not created in this mode.
	ReadOnly bool
	// Retry governs waiting for another process's lock. Zero value uses
	// retry.DefaultConfig.
	Retry retry.Config
}

// Open opens the store, waiting out lock conflicts with another process.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "store").Logger()

	if opts.Path != "" {
		if opts.ReadOnly {
			if _, err := os.Stat(opts.Path); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s (run `connstats collect` first)", ErrStoreNotFound, opts.Path)
			}
		} else if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	cfg := opts.Retry
	if cfg.MaxRetries == 0 {
		cfg = retry.DefaultConfig()
	}

	var db *sql.DB
	err := retry.Do(ctx, cfg, func() error {
		var err error
		db, err = duckdb.OpenDB(opts.Path, opts.ReadOnly)
		if err != nil {
			return err
		}
		if err = db.PingContext(ctx); err != nil {
			_ = db.Close()
			logger.Debug().Err(err).Msg("Store busy, retrying")
		}
		return err
	}, duckdb.IsLockConflict)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", opts.Path, err)
	}

	s := &Store{
		db:        db,
		path:      opts.Path,
		readOnly:  opts.ReadOnly,
		logger:    logger,
		connStats: duckdb.NewTable[ConnStat](db, constants.ConnStatsTable),
		processes: duckdb.NewTable[ProcessMetadata](db, constants.ProcessMetadataTable),
	}

	if !opts.ReadOnly {
		if err := s.initSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	mode := "read-write"
	if opts.ReadOnly {
		mode = "read-only"
	}
	logger.Debug().Str("path", opts.Path).Str("mode", mode).Msg("Store opened")

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	s.logger.Debug().Str("path", s.path).Msg("Store closed")
	return nil
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path; empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened without the write lock.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}
