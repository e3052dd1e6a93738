// Package collector samples host connections into the conn_stats table.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/coral-mesh/connstats/internal/constants"
	"github.com/coral-mesh/connstats/internal/database"
)

// Config configures the sampling loop.
type Config struct {
	Interval       time.Duration
	Retention      time.Duration
	Kind           string
	ResolveWorkers int
}

// DefaultConfig returns the default collector configuration.
func DefaultConfig() Config {
	return Config{
		Interval:       constants.DefaultCollectInterval,
		Retention:      constants.DefaultRetention,
		Kind:           "inet",
		ResolveWorkers: constants.DefaultResolveWorkers,
	}
}

// Collector samples sockets, attributes them to processes and hands the
// result to a sink.
type Collector struct {
	source   Source
	resolver Resolver
	sink     Sink
	config   Config
	logger   zerolog.Logger
	tracker  *Tracker

	// procs caches metadata of the processes in the last stored sample,
	// keyed by upid so a reused pid misses.
	procs map[string]*database.ProcessMetadata
	now   func() time.Time
}

// New creates a collector.
func New(source Source, resolver Resolver, sink Sink, config Config, logger zerolog.Logger) *Collector {
	if config.Kind == "" {
		config.Kind = "inet"
	}
	if config.ResolveWorkers <= 0 {
		config.ResolveWorkers = 1
	}
	return &Collector{
		source:   source,
		resolver: resolver,
		sink:     sink,
		config:   config,
		logger:   logger.With().Str("component", "conn_collector").Logger(),
		tracker:  NewTracker(),
		procs:    make(map[string]*database.ProcessMetadata),
		now:      time.Now,
	}
}

// Start samples at the configured interval until ctx is cancelled. A
// failed sample is logged and the loop continues.
func (c *Collector) Start(ctx context.Context) error {
	if c.config.Interval <= 0 {
		return fmt.Errorf("collector interval must be positive, got %s", c.config.Interval)
	}

	c.logger.Info().
		Dur("interval", c.config.Interval).
		Dur("retention", c.config.Retention).
		Str("kind", c.config.Kind).
		Msg("Starting connection collector")

	if err := c.Collect(ctx); err != nil && ctx.Err() == nil {
		c.logger.Error().Err(err).Msg("Initial connection sample failed")
	}

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Stopping connection collector")
			return ctx.Err()
		case <-ticker.C:
			if err := c.Collect(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("Failed to sample connections")
			}
		}
	}
}

// Collect takes one sample and writes it. Connection state and the process
// cache advance only when the write succeeds, so a failed sample's opens and
// closes are reported again by the next one. It is not safe for concurrent
// use.
func (c *Collector) Collect(ctx context.Context) error {
	now := c.now().UTC()

	conns, err := c.source.Connections(ctx, c.config.Kind)
	if err != nil {
		return err
	}

	procs, err := c.resolve(ctx, conns, now)
	if err != nil {
		return err
	}

	upids := make(map[int32]string, len(procs))
	batch := Batch{Processes: make([]*database.ProcessMetadata, 0, len(procs))}
	for pid, meta := range procs {
		upids[pid] = meta.UPID
		batch.Processes = append(batch.Processes, meta)
	}
	sort.Slice(batch.Processes, func(i, j int) bool { return batch.Processes[i].PID < batch.Processes[j].PID })

	sample := c.tracker.Diff(now, conns, upids)
	batch.Stats = sample.Stats
	if c.config.Retention > 0 {
		batch.PruneBefore = now.Add(-c.config.Retention)
	}

	if err := c.sink.Write(ctx, batch); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}

	c.tracker.Commit(sample)
	c.procs = make(map[string]*database.ProcessMetadata, len(batch.Processes))
	for _, meta := range batch.Processes {
		c.procs[meta.UPID] = meta
	}

	c.logger.Debug().
		Int("sockets", len(conns)).
		Int("rows", len(batch.Stats)).
		Int("processes", len(batch.Processes)).
		Msg("Stored connection sample")
	return nil
}

// resolve returns metadata for every pid owning a socket in conns, looked
// up concurrently. Pids that cannot be resolved are left out and their rows
// fall back to UnknownUPID.
func (c *Collector) resolve(ctx context.Context, conns []Conn, now time.Time) (map[int32]*database.ProcessMetadata, error) {
	var pids []int32
	seen := make(map[int32]bool)
	for _, conn := range conns {
		if conn.PID <= 0 || seen[conn.PID] {
			continue
		}
		seen[conn.PID] = true
		pids = append(pids, conn.PID)
	}

	resolved := make([]*database.ProcessMetadata, len(pids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.ResolveWorkers)
	for i, pid := range pids {
		g.Go(func() error {
			meta, err := c.lookup(gctx, pid)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				c.logger.Debug().Err(err).Int32("pid", pid).Msg("Process not resolved")
				return nil
			}
			resolved[i] = stamp(meta, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve processes: %w", err)
	}

	current := make(map[int32]*database.ProcessMetadata, len(pids))
	for i, pid := range pids {
		if resolved[i] != nil {
			current[pid] = resolved[i]
		}
	}
	return current, nil
}

// lookup serves pid from the cache while its start time still matches. A
// reused pid has a new upid and is resolved again.
func (c *Collector) lookup(ctx context.Context, pid int32) (*database.ProcessMetadata, error) {
	created, err := c.resolver.StartTime(ctx, pid)
	if err != nil {
		return nil, err
	}
	if meta, ok := c.procs[FormatUPID(pid, created)]; ok {
		return meta, nil
	}
	return c.resolver.Resolve(ctx, pid)
}
