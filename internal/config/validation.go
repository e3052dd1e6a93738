package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/coral-mesh/connstats/internal/timerange"
)

// OutputFormats lists the accepted query.format values.
var OutputFormats = []string{"table", "json", "csv"}

// Validate checks a loaded configuration.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := timerange.Parse(cfg.Query.Since, "", time.Now()); err != nil {
		errs = append(errs, fmt.Errorf("query.since: %w", err))
	}

	if !validFormat(cfg.Query.Format) {
		errs = append(errs, fmt.Errorf("query.format: %q is not one of %v", cfg.Query.Format, OutputFormats))
	}
	if cfg.Query.MaxRows < 0 {
		errs = append(errs, fmt.Errorf("query.max_rows must not be negative"))
	}
	if cfg.Query.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("query.timeout must be positive"))
	}

	if cfg.Collector.Interval <= 0 {
		errs = append(errs, fmt.Errorf("collector.interval must be positive"))
	}
	if cfg.Collector.Retention < cfg.Collector.Interval {
		errs = append(errs, fmt.Errorf("collector.retention (%s) must be at least collector.interval (%s)",
			cfg.Collector.Retention, cfg.Collector.Interval))
	}
	if cfg.Collector.ResolveWorkers < 1 {
		errs = append(errs, fmt.Errorf("collector.resolve_workers must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func validFormat(format string) bool {
	for _, f := range OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}
