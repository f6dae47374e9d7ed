// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and FUNDINEED_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the persistence backend: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`
	// DBPath is the SQLite file used when StoreDriver is sqlite.
	DBPath string `koanf:"db_path"`

	// RedisAddr enables the Redis schedule cache when set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	// CacheTTL is how long computed schedules are cached.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// QueueSize bounds the in-memory tracking queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of tracking workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many tracking event ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// AdminUsername and AdminPassword are the single back-office credential.
	// An empty password disables admin login.
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`
	// JWTSecret signs admin tokens. When empty a random secret is generated
	// at startup and tokens do not survive a restart.
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
	Issuer    string        `koanf:"issuer"`

	// LoginRateLimit and FormRateLimit are requests per client per
	// RateLimitWindow.
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	FormRateLimit   int           `koanf:"form_rate_limit"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ShutdownTimeout bounds graceful shutdown, including the queue drain.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8080",
		StoreDriver:     StoreMemory,
		DBPath:          "data/fundineed.db",
		CacheTTL:        24 * time.Hour,
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU(),
		DedupeSize:      50_000,
		AdminUsername:   "admin",
		TokenTTL:        8 * time.Hour,
		Issuer:          "fundineed",
		LoginRateLimit:  5,
		FormRateLimit:   20,
		RateLimitWindow: time.Minute,
		MaxBodyBytes:    64 << 10,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return invalid(fmt.Sprintf("store_driver must be %q or %q, got %q", StoreMemory, StoreSQLite, c.StoreDriver))
	case c.StoreDriver == StoreSQLite && c.DBPath == "":
		return invalid("db_path is required for the sqlite store")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid(fmt.Sprintf("log_format must be text or json, got %q", c.LogFormat))
	case c.QueueSize < 1, c.WorkerCount < 1, c.DedupeSize < 1:
		return invalid("queue_size, worker_count and dedupe_size must be positive")
	case c.CacheTTL <= 0, c.TokenTTL <= 0, c.RateLimitWindow <= 0, c.ShutdownTimeout <= 0:
		return invalid("durations must be positive")
	case c.LoginRateLimit < 1 || c.FormRateLimit < 1:
		return invalid("rate limits must be positive")
	case c.MaxBodyBytes < 1:
		return invalid("max_body_bytes must be positive")
	case c.RedisDB < 0:
		return invalid("redis_db must not be negative")
	}
	return nil
}

// AdminEnabled reports whether a back-office credential is configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
