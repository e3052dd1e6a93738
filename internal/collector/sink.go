package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/connstats/internal/database"
	apperrors "github.com/coral-mesh/connstats/internal/errors"
	"github.com/coral-mesh/connstats/internal/privilege"
)

// Batch is everything one sample produced.
type Batch struct {
	Stats     []*database.ConnStat
	Processes []*database.ProcessMetadata
	// PruneBefore drops rows older than this time. Zero keeps everything.
	PruneBefore time.Time
}

// Sink persists sample batches.
type Sink interface {
	Write(ctx context.Context, b Batch) error
}

// StoreSink writes batches to the DuckDB store. DuckDB admits a single
// read-write process, so the store is opened per batch and released right
// after, leaving query sessions free to open it in between.
type StoreSink struct {
	opts   database.Options
	logger zerolog.Logger
}

// NewStoreSink creates a sink for the store at opts.Path.
func NewStoreSink(opts database.Options, logger zerolog.Logger) *StoreSink {
	opts.ReadOnly = false
	return &StoreSink{
		opts:   opts,
		logger: logger.With().Str("component", "store_sink").Logger(),
	}
}

// Write implements Sink. Under sudo the store files are handed back to the
// invoking user once written.
func (s *StoreSink) Write(ctx context.Context, b Batch) error {
	if err := s.write(ctx, b); err != nil {
		return err
	}
	if s.opts.Path == "" {
		return nil
	}
	if err := privilege.FixFileOwnership(s.opts.Path, s.opts.Path+".wal"); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to fix store ownership")
	}
	return nil
}

func (s *StoreSink) write(ctx context.Context, b Batch) error {
	store, err := database.Open(ctx, s.opts, s.logger)
	if err != nil {
		return err
	}
	defer apperrors.DeferClose(s.logger, store, "failed to close store")

	return WriteBatch(ctx, store, b, s.logger)
}

// WriteBatch writes b to an open store.
func WriteBatch(ctx context.Context, store *database.Store, b Batch, logger zerolog.Logger) error {
	if len(b.Processes) > 0 {
		if err := store.UpsertProcesses(ctx, b.Processes); err != nil {
			return err
		}
	}
	if len(b.Stats) > 0 {
		if err := store.InsertConnStats(ctx, b.Stats); err != nil {
			return err
		}
	}
	if !b.PruneBefore.IsZero() {
		n, err := store.PruneBefore(ctx, b.PruneBefore)
		if err != nil {
			return fmt.Errorf("failed to apply retention: %w", err)
		}
		if n > 0 {
			logger.Debug().Int64("rows", n).Time("before", b.PruneBefore).Msg("Pruned conn stats")
		}
	}
	return nil
}
