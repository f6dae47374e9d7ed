package cache

import "time"

const (
	defaultDialTimeout = 500 * time.Millisecond
	defaultIOTimeout   = 250 * time.Millisecond
)

// RedisOption configures a RedisCache.
type RedisOption func(*redisConfig)

type redisConfig struct {
	password    string
	db          int
	dialTimeout time.Duration
	ioTimeout   time.Duration
}

// WithPassword sets the AUTH password.
func WithPassword(p string) RedisOption {
	return func(c *redisConfig) { c.password = p }
}

// WithDB selects the logical database.
func WithDB(db int) RedisOption {
	return func(c *redisConfig) {
		if db >= 0 {
			c.db = db
		}
	}
}

// WithTimeouts sets dial and read/write timeouts.
func WithTimeouts(dial, io time.Duration) RedisOption {
	return func(c *redisConfig) {
		if dial > 0 {
			c.dialTimeout = dial
		}
		if io > 0 {
			c.ioTimeout = io
		}
	}
}
