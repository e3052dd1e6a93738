package database

import (
	"context"
	"fmt"
	"time"

	"github.com/coral-mesh/connstats/internal/constants"
	"github.com/coral-mesh/connstats/internal/duckdb"
)

// ProcessMetadata is the context resolved for one process, keyed by its
// unique process id.
type ProcessMetadata struct {
	UPID      string    `duckdb:"upid,pk"`
	PID       int64     `duckdb:"pid"`
	Pod       string    `duckdb:"pod"`
	Service   string    `duckdb:"service"`
	Namespace string    `duckdb:"namespace"`
	Container string    `duckdb:"container"`
	Node      string    `duckdb:"node"`
	Cmdline   string    `duckdb:"cmdline"`
	FirstSeen time.Time `duckdb:"first_seen,immutable"`
	LastSeen  time.Time `duckdb:"last_seen"`
}

// UpsertProcesses inserts new processes and refreshes known ones.
// first_seen is kept from the first write.
func (s *Store) UpsertProcesses(ctx context.Context, procs []*ProcessMetadata) error {
	if err := s.processes.BatchWrite(ctx, procs); err != nil {
		return fmt.Errorf("failed to upsert process metadata: %w", err)
	}
	return nil
}

// ProcessesByUPID returns the metadata of the given processes. Unknown
// upids are absent from the map.
func (s *Store) ProcessesByUPID(ctx context.Context, upids []string) (map[string]*ProcessMetadata, error) {
	out := make(map[string]*ProcessMetadata, len(upids))
	if len(upids) == 0 {
		return out, nil
	}

	args := make([]interface{}, len(upids))
	for i, u := range upids {
		args[i] = u
	}

	procs, err := s.processes.Find(ctx, duckdb.NewQueryBuilder(constants.ProcessMetadataTable).In("upid", args...))
	if err != nil {
		return nil, fmt.Errorf("failed to load process metadata: %w", err)
	}
	for _, p := range procs {
		out[p.UPID] = p
	}
	return out, nil
}
