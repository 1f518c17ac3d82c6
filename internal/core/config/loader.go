package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/hivera/internal/engine"
	"github.com/vietddude/hivera/internal/infra/hivera"
	redisclient "github.com/vietddude/hivera/internal/infra/redis"
	"github.com/vietddude/hivera/internal/infra/storage/file"
)

// Default returns the configuration used when no config file exists.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault reads path, falling back to Default when it does not exist.
func LoadOrDefault(path string) (*AppConfig, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes YAML configuration, expanding ${ENV} references first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = hivera.DefaultBaseURL
	}
	if cfg.API.Origin == "" {
		cfg.API.Origin = hivera.DefaultOrigin
	}
	if cfg.API.Referer == "" {
		cfg.API.Referer = hivera.DefaultReferer
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = hivera.DefaultTimeout
	}

	def := engine.DefaultConfig()
	if cfg.Engine.MaxAttempts == 0 {
		cfg.Engine.MaxAttempts = def.MaxAttempts
	}
	if cfg.Engine.RetryDelay == 0 {
		cfg.Engine.RetryDelay = def.RetryDelay
	}
	if cfg.Engine.ShortBackoff == 0 {
		cfg.Engine.ShortBackoff = def.ShortBackoff
	}
	if cfg.Engine.LongBackoff == 0 {
		cfg.Engine.LongBackoff = def.LongBackoff
	}
	if cfg.Engine.RestartPolicy == "" {
		cfg.Engine.RestartPolicy = string(engine.PolicyTerminate)
	}
	if cfg.Engine.RestartDelay == 0 {
		cfg.Engine.RestartDelay = time.Minute
	}

	if cfg.Accounts.Source == "" {
		cfg.Accounts.Source = SourceFile
	}
	if cfg.Accounts.File == "" {
		cfg.Accounts.File = file.DefaultPath
	}

	if cfg.Redis.URL != "" && cfg.Redis.LeaseTTL == 0 {
		cfg.Redis.LeaseTTL = redisclient.DefaultLeaseTTL
	}
}

// Validate checks settings that have no usable default.
func (c *AppConfig) Validate() error {
	switch c.Accounts.Source {
	case SourceFile:
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("accounts.source is postgres but database.url is empty")
		}
	default:
		return fmt.Errorf("unknown accounts.source %q", c.Accounts.Source)
	}

	if _, err := engine.ParseRestartPolicy(c.Engine.RestartPolicy); err != nil {
		return err
	}
	if c.Engine.MaxAttempts < 0 {
		return fmt.Errorf("engine.max_attempts must not be negative")
	}
	return nil
}
