// Package config loads service configuration in three layers: built-in
// defaults, an optional YAML file, then environment variables with the
// IPDASH prefix. Later layers win.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
//
// Fields whose name is a single word carry no envconfig tag on purpose:
// a tag doubles as an unprefixed fallback name, which would let ambient
// variables like $PATH or $PORT leak into the config. Untagged fields
// only answer to their exact IPDASH_-prefixed key.
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Logging   LoggingConfig     `yaml:"logging"`
	Source    SourceConfig      `yaml:"source"`
	Analytics AnalyticsConfig   `yaml:"analytics"`
	Columns   map[string]string `yaml:"columns"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimit     `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimit contains request rate limiting configuration.
type RateLimit struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" validate:"oneof=json text"`
	Output   string `yaml:"output" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SourceConfig selects and parameterizes the raw-table data source.
type SourceConfig struct {
	Kind            string        `yaml:"kind" validate:"oneof=sheets excel csv"`
	SheetID         string        `yaml:"sheet_id" envconfig:"SHEET_ID"`
	Worksheet       string        `yaml:"worksheet"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	Path            string        `yaml:"path"`
	CacheTTL        time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
}

// AnalyticsConfig parameterizes the grading pipeline.
type AnalyticsConfig struct {
	Cutoffs       []float64 `yaml:"cutoffs"`
	DefaultCutoff float64   `yaml:"default_cutoff" envconfig:"DEFAULT_CUTOFF" validate:"gt=0"`
	TopN          int       `yaml:"top_n" envconfig:"TOP_N" validate:"min=1"`
}

// defaultConfig returns the built-in defaults. The YAML file overrides
// only the keys it carries; the environment overrides both.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimit{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/ipdash.log",
		},
		Source: SourceConfig{
			Kind:     "sheets",
			CacheTTL: 600 * time.Second,
		},
		Analytics: AnalyticsConfig{
			Cutoffs:       []float64{2, 4, 6, 8, 10, 12, 14, 16},
			DefaultCutoff: 8,
			TopN:          5,
		},
	}
}

// Load reads configuration: defaults first, then the YAML file at
// IPDASH_CONFIG_FILE (default config.yaml) when present, then IPDASH_*
// environment variables on top.
func Load() (*Config, error) {
	cfg := defaultConfig()

	path := os.Getenv("IPDASH_CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Only keys actually present in the environment are applied here;
	// absent keys leave the default or file value untouched.
	if err := envconfig.Process("IPDASH", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints plus the cross-field rules the
// tag syntax cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	switch c.Source.Kind {
	case "sheets":
		if c.Source.SheetID == "" {
			return fmt.Errorf("config validation failed: source.sheet_id required for sheets source")
		}
		if c.Source.CredentialsFile == "" {
			return fmt.Errorf("config validation failed: source.credentials_file required for sheets source")
		}
	case "excel", "csv":
		if c.Source.Path == "" {
			return fmt.Errorf("config validation failed: source.path required for %s source", c.Source.Kind)
		}
	}
	for i, cutoff := range c.Analytics.Cutoffs {
		if cutoff <= 0 {
			return fmt.Errorf("config validation failed: analytics.cutoffs[%d] must be positive", i)
		}
		if i > 0 && cutoff <= c.Analytics.Cutoffs[i-1] {
			return fmt.Errorf("config validation failed: analytics.cutoffs must be strictly ascending")
		}
	}
	return nil
}

// Credentials reads the service-account key file for the sheets source.
func (c *Config) Credentials() ([]byte, error) {
	data, err := os.ReadFile(c.Source.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return data, nil
}
