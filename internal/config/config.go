// Package config loads the service configuration used by the emergence command.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the config file.
const (
	EnvDocument = "EMERGENCE_DOCUMENT"
	EnvAddr     = "EMERGENCE_ADDR"
	EnvRedisURL = "EMERGENCE_REDIS_URL"
	EnvLogLevel = "EMERGENCE_LOG_LEVEL"
)

// Config holds the settings for the play, serve and mcp commands.
type Config struct {
	Document  string         `json:"document" yaml:"document" validate:"required"`
	Addr      string         `json:"addr" yaml:"addr" validate:"required,hostname_port"`
	Log       LogConfig      `json:"log" yaml:"log"`
	Store     StoreConfig    `json:"store" yaml:"store"`
	Sequences SequenceConfig `json:"sequences" yaml:"sequences"`
	Watch     bool           `json:"watch" yaml:"watch"`
}

// LogConfig selects level and handler format.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json"`
}

// StoreConfig selects where session snapshots are kept.
type StoreConfig struct {
	Driver   string        `json:"driver" yaml:"driver" validate:"oneof=memory file redis"`
	Path     string        `json:"path" yaml:"path" validate:"required_if=Driver file"`
	RedisURL string        `json:"redis_url" yaml:"redis_url" validate:"omitempty,url"`
	TTL      time.Duration `json:"ttl" yaml:"ttl" validate:"gte=0"`
}

// SequenceConfig holds the duration of each visual sequence.
type SequenceConfig struct {
	Emergence time.Duration `json:"emergence" yaml:"emergence" validate:"gte=0"`
	Burst     time.Duration `json:"burst" yaml:"burst" validate:"gte=0"`
	Reveal    time.Duration `json:"reveal" yaml:"reveal" validate:"gte=0"`
	Teardown  time.Duration `json:"teardown" yaml:"teardown" validate:"gte=0"`
}

// DefaultConfig returns a Config with the stock durations and an in-memory store.
func DefaultConfig() Config {
	return Config{
		Document: "emergence.json",
		Addr:     "127.0.0.1:8080",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Driver: "memory",
			Path:   ".emergence/sessions",
		},
		Sequences: SequenceConfig{
			Emergence: 2 * time.Second,
			Burst:     1500 * time.Millisecond,
			Reveal:    time.Second,
			Teardown:  time.Second,
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Document != "" {
		c.Document = source.Document
	}
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.Log.Level != "" {
		c.Log.Level = source.Log.Level
	}
	if source.Log.Format != "" {
		c.Log.Format = source.Log.Format
	}
	if source.Store.Driver != "" {
		c.Store.Driver = source.Store.Driver
	}
	if source.Store.Path != "" {
		c.Store.Path = source.Store.Path
	}
	if source.Store.RedisURL != "" {
		c.Store.RedisURL = source.Store.RedisURL
	}
	if source.Store.TTL > 0 {
		c.Store.TTL = source.Store.TTL
	}
	if source.Sequences.Emergence > 0 {
		c.Sequences.Emergence = source.Sequences.Emergence
	}
	if source.Sequences.Burst > 0 {
		c.Sequences.Burst = source.Sequences.Burst
	}
	if source.Sequences.Reveal > 0 {
		c.Sequences.Reveal = source.Sequences.Reveal
	}
	if source.Sequences.Teardown > 0 {
		c.Sequences.Teardown = source.Sequences.Teardown
	}
	if source.Watch {
		c.Watch = true
	}
}

// ApplyEnv overrides fields from EMERGENCE_* variables. Setting EMERGENCE_REDIS_URL
// also switches the store driver to redis.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDocument); v != "" {
		c.Document = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Store.Driver = "redis"
		c.Store.RedisURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags and the redis URL requirement.
func (c *Config) Validate() error {
	if c.Store.Driver == "redis" && c.Store.RedisURL == "" {
		return fmt.Errorf("invalid config: store.redis_url is required for the redis driver")
	}
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(errs))
			for _, e := range errs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a YAML or JSON config file, merges it over the defaults, applies the
// environment and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var loaded Config
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = json.Unmarshal(data, &loaded)
		} else {
			err = yaml.Unmarshal(data, &loaded)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Merge(&loaded)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
