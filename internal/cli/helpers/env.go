package helpers

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/coral-mesh/connstats/internal/config"
	"github.com/coral-mesh/connstats/internal/logging"
)

// GlobalFlags are the persistent flags of the root command.
type GlobalFlags struct {
	ConfigFile string
	DBPath     string
	LogLevel   string
}

// AddFlags registers the global flags.
func (g *GlobalFlags) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&g.ConfigFile, "config", "", "Path to config file (default: ~/.connstats/config.yaml)")
	flags.StringVar(&g.DBPath, "db", "", "Path to the DuckDB store (overrides config)")
	flags.StringVar(&g.LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
}

// ConfigPath returns the configuration file in effect.
func (g *GlobalFlags) ConfigPath() string {
	if g.ConfigFile != "" {
		return g.ConfigFile
	}
	return config.NewLoader().ConfigPath()
}

// Env is the resolved configuration and logger of one invocation.
type Env struct {
	Config *config.Config
	Logger zerolog.Logger
}

// Load resolves config file, environment and flags, in increasing order of
// precedence, and builds a logger writing to logOutput.
func (g *GlobalFlags) Load(logOutput io.Writer) (*Env, error) {
	cfg, err := config.NewLoader().LoadFile(g.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if g.DBPath != "" {
		cfg.Storage.Path = g.DBPath
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
		Output: logOutput,
	})

	return &Env{Config: cfg, Logger: logger}, nil
}
