package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"salesstats/internal/source"
)

// EnvPrefix prefixes every environment override, e.g. SALESSTATS_SERVER_READ_TIMEOUT.
// Keys come from field names via split_words. Fields carry no envconfig tag:
// envconfig also reads a bare tag name such as $PATH as a fallback.
const EnvPrefix = "SALESSTATS"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" split_words:"true"`
	Source    SourceConfig    `yaml:"source" split_words:"true"`
	State     StateConfig     `yaml:"state" split_words:"true"`
	Changelog ChangelogConfig `yaml:"changelog" split_words:"true"`
	Log       LogConfig       `yaml:"log" split_words:"true"`
	// Seed drives date synthesis; 0 picks a time-based seed.
	Seed int64 `yaml:"seed" split_words:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string          `yaml:"addr" split_words:"true" validate:"required"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" split_words:"true"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true" validate:"gte=0"`
	Burst   int     `yaml:"burst" split_words:"true" validate:"gte=1"`
}

// SourceConfig selects where raw orders come from.
type SourceConfig struct {
	Kind    string        `yaml:"kind" split_words:"true" validate:"oneof=http file"`
	URL     string        `yaml:"url" split_words:"true" validate:"omitempty,url"`
	Path    string        `yaml:"path" split_words:"true" validate:"required_if=Kind file"`
	Timeout time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
}

// StateConfig selects the date ledger backend.
type StateConfig struct {
	Backend     string `yaml:"backend" split_words:"true" validate:"oneof=memory pebble badger"`
	Dir         string `yaml:"dir" split_words:"true" validate:"required_unless=Backend memory"`
	SnapshotDir string `yaml:"snapshot_dir" split_words:"true" validate:"required"`
}

// ChangelogConfig selects where date assignments are logged.
type ChangelogConfig struct {
	Sink           string `yaml:"sink" split_words:"true" validate:"oneof=none file kafka both"`
	Dir            string `yaml:"dir" split_words:"true"`
	KafkaBootstrap string `yaml:"kafka_bootstrap" split_words:"true"`
	Topic          string `yaml:"topic" split_words:"true"`
	ManifestTopic  string `yaml:"manifest_topic" split_words:"true"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `yaml:"level" split_words:"true"`
	File  string `yaml:"file" split_words:"true"`
}

// UsesKafka reports whether changelog and manifest go to Kafka.
func (c ChangelogConfig) UsesKafka() bool { return c.Sink == "kafka" || c.Sink == "both" }

// UsesFile reports whether the changelog is written to disk.
func (c ChangelogConfig) UsesFile() bool { return c.Sink == "file" || c.Sink == "both" }

// Defaults returns the configuration used when neither file nor environment
// says otherwise.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       RateLimitConfig{Enabled: true, RPS: 20, Burst: 40},
		},
		Source: SourceConfig{Kind: "http", URL: source.DefaultURL, Timeout: 10 * time.Second},
		State:  StateConfig{Backend: "memory", Dir: "data/dates", SnapshotDir: "snapshots"},
		Changelog: ChangelogConfig{
			Sink:          "none",
			Dir:           "changelog",
			Topic:         "salesstats.date-changelog",
			ManifestTopic: "salesstats.date-snapshots",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load layers defaults, the optional YAML file at path and SALESSTATS_*
// environment variables, in that order, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Changelog.UsesKafka() && c.Changelog.KafkaBootstrap == "" {
		return errors.New("changelog.kafka_bootstrap is required for kafka sinks")
	}
	if c.Changelog.UsesFile() && c.Changelog.Dir == "" {
		return errors.New("changelog.dir is required for file sinks")
	}
	return nil
}
