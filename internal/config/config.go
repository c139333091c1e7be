// Package config defines service configuration structures and loading hooks.
//
// Values are layered by Load: defaults from New, then an optional YAML file
// named by ROSTER_CONFIG, then ROSTER_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backends accepted by StoreBackend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// StoreBackend selects the roster store: memory, redis or sqlite.
	StoreBackend string `koanf:"store_backend"`

	// RedisURL is parsed with redis.ParseURL when StoreBackend is redis.
	RedisURL string `koanf:"redis_url"`

	// RedisKeyPrefix namespaces every key written to Redis.
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// SQLitePath is the database file; ":memory:" keeps it in process.
	SQLitePath string `koanf:"sqlite_path"`

	// AutogenIntervalMS is the period of per-connection auto-generation.
	AutogenIntervalMS int `koanf:"autogen_interval_ms"`

	// SubscriberBuffer bounds the outbound frame queue of each socket.
	SubscriberBuffer int `koanf:"subscriber_buffer"`

	// AllowedOrigins lists browser origins accepted by CORS and the socket handshake.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// GridSize is the side of the game session spawn grid.
	GridSize int `koanf:"grid_size"`

	// SeedRoster loads the sample roster into an empty store on start.
	SeedRoster bool `koanf:"seed_roster"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":3000",
		StoreBackend:      BackendMemory,
		RedisURL:          "redis://localhost:6379/0",
		RedisKeyPrefix:    "roster",
		SQLitePath:        "roster.db",
		AutogenIntervalMS: 5000,
		SubscriberBuffer:  64,
		AllowedOrigins:    []string{"http://localhost:5173"},
		GridSize:          20,
		SeedRoster:        false,
		ShutdownTimeoutMS: 10_000,
	}
}

// AutogenInterval returns AutogenIntervalMS as a duration.
func (c *Config) AutogenInterval() time.Duration {
	return time.Duration(c.AutogenIntervalMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.AutogenIntervalMS <= 0:
		return fmt.Errorf("%w: autogen_interval_ms must be positive, got %d", ErrInvalidConfig, c.AutogenIntervalMS)
	case c.SubscriberBuffer <= 0:
		return fmt.Errorf("%w: subscriber_buffer must be positive, got %d", ErrInvalidConfig, c.SubscriberBuffer)
	case c.GridSize <= 0:
		return fmt.Errorf("%w: grid_size must be positive, got %d", ErrInvalidConfig, c.GridSize)
	case c.ShutdownTimeoutMS < 0:
		return fmt.Errorf("%w: shutdown_timeout_ms must not be negative", ErrInvalidConfig)
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url is required for the redis backend", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}
