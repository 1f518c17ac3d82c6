package config

import (
	"time"

	"github.com/vietddude/hivera/internal/engine"
	"github.com/vietddude/hivera/internal/infra/hivera"
	redisclient "github.com/vietddude/hivera/internal/infra/redis"
	"github.com/vietddude/hivera/internal/infra/storage/postgres"
)

// Account sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	API      hivera.Config      `yaml:"api"`
	Engine   EngineConfig       `yaml:"engine"`
	Accounts AccountsConfig     `yaml:"accounts"`
	Database postgres.Config    `yaml:"database"`
	Redis    redisclient.Config `yaml:"redis"`
}

// ServerConfig holds health/metrics HTTP server settings.
type ServerConfig struct {
	Port    int   `yaml:"port"`
	Enabled *bool `yaml:"enabled"` // nil = true
}

// IsEnabled reports whether the health server should run.
func (s ServerConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional; records are also appended here
}

// EngineConfig holds cycle timing, retry and supervision settings.
type EngineConfig struct {
	Continuous    *bool         `yaml:"continuous"` // nil = true
	MaxAttempts   int           `yaml:"max_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	ShortBackoff  time.Duration `yaml:"short_backoff"`
	LongBackoff   time.Duration `yaml:"long_backoff"`
	RestartPolicy string        `yaml:"restart_policy"` // terminate, restart
	RestartDelay  time.Duration `yaml:"restart_delay"`
}

// Scheduler converts the section into scheduler settings.
func (e EngineConfig) Scheduler() engine.Config {
	return engine.Config{
		MaxAttempts:    e.MaxAttempts,
		RetryDelay:     e.RetryDelay,
		ShortBackoff:   e.ShortBackoff,
		LongBackoff:    e.LongBackoff,
		ContinuousMode: e.Continuous == nil || *e.Continuous,
	}
}

// AccountsConfig selects where accounts are loaded from.
type AccountsConfig struct {
	Source string `yaml:"source"` // file (default) or postgres
	File   string `yaml:"file"`
}
