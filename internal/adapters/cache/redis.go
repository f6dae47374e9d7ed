package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/fundineed/pkg/metrics"
)

// RedisCache is a Cache backed by a Redis server.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a client for addr. It does not dial until first use;
// call Ping to check connectivity.
func NewRedisCache(addr string, opts ...RedisOption) *RedisCache {
	cfg := redisConfig{dialTimeout: defaultDialTimeout, ioTimeout: defaultIOTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.password,
		DB:           cfg.db,
		DialTimeout:  cfg.dialTimeout,
		ReadTimeout:  cfg.ioTimeout,
		WriteTimeout: cfg.ioTimeout,
		MaxRetries:   1,
	})
	return &RedisCache{client: rdb}
}

// Ping checks that the server is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		metrics.RecordCacheRequest("hit")
		return val, true
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheRequest("miss")
	default:
		metrics.RecordCacheRequest("error")
	}
	return nil, false
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
