package config

import (
	"time"
)

// SchemaVersion is the configuration schema version.
const SchemaVersion = "1"

// Config represents ~/.connstats/config.yaml.
type Config struct {
	Version   string          `yaml:"version"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Query     QueryConfig     `yaml:"query"`
	Collector CollectorConfig `yaml:"collector"`
}

// StorageConfig locates the DuckDB store.
type StorageConfig struct {
	// Path is the DuckDB file. Empty means <config dir>/connstats.duckdb.
	Path string `yaml:"path,omitempty" env:"CONNSTATS_DB"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"CONNSTATS_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"CONNSTATS_LOG_PRETTY"`
}

// QueryConfig holds defaults for query commands.
type QueryConfig struct {
	Since   string        `yaml:"since" env:"CONNSTATS_QUERY_SINCE"`
	Format  string        `yaml:"format" env:"CONNSTATS_QUERY_FORMAT"`
	MaxRows int           `yaml:"max_rows" env:"CONNSTATS_QUERY_MAX_ROWS"`
	Timeout time.Duration `yaml:"timeout" env:"CONNSTATS_QUERY_TIMEOUT"`
	// Labels are the context labels attached by `query conns` by default.
	Labels []string `yaml:"labels,omitempty" env:"CONNSTATS_QUERY_LABELS"`
}

// CollectorConfig configures the host connection sampler.
type CollectorConfig struct {
	Interval       time.Duration `yaml:"interval" env:"CONNSTATS_COLLECT_INTERVAL"`
	Retention      time.Duration `yaml:"retention" env:"CONNSTATS_RETENTION"`
	ResolveWorkers int           `yaml:"resolve_workers" env:"CONNSTATS_RESOLVE_WORKERS"`
	// Kind is the gopsutil connection kind: inet, inet4, inet6, tcp, udp...
	Kind string `yaml:"kind" env:"CONNSTATS_CONN_KIND"`
}
