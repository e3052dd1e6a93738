// Package constants defines shared defaults.
package constants

import "time"

var (
	ConfigFile = "config.yaml"

	DefaultDir = ".connstats"

	DefaultDatabaseFile = "connstats.duckdb"
)

// Table names.
const (
	ConnStatsTable       = "conn_stats"
	ProcessMetadataTable = "process_metadata"
)

// Ports.
const (
	// MongoDBPort is the well-known MongoDB listener port.
	MongoDBPort = 27017
)

// Query defaults.
const (
	// DefaultQueryStart is the trailing window used when no start is given.
	DefaultQueryStart = "-30s"

	DefaultOutputFormat = "table"

	DefaultMaxRows = 10000

	DefaultQueryTimeout = 30 * time.Second
)

// Collector defaults.
const (
	DefaultCollectInterval = 5 * time.Second

	DefaultRetention = 10 * time.Minute

	// DefaultResolveWorkers bounds concurrent process lookups per sample.
	DefaultResolveWorkers = 8
)
