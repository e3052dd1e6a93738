package config

import (
	"github.com/coral-mesh/connstats/internal/constants"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: SchemaVersion,
		Logging: LoggingConfig{
			Level:  "warn",
			Pretty: true,
		},
		Query: QueryConfig{
			Since:   constants.DefaultQueryStart,
			Format:  constants.DefaultOutputFormat,
			MaxRows: constants.DefaultMaxRows,
			Timeout: constants.DefaultQueryTimeout,
			Labels:  []string{"pod", "service"},
		},
		Collector: CollectorConfig{
			Interval:       constants.DefaultCollectInterval,
			Retention:      constants.DefaultRetention,
			ResolveWorkers: constants.DefaultResolveWorkers,
			Kind:           "inet",
		},
	}
}
