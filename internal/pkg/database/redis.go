package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/pkg/logger"
)

// DefaultCacheTimeout bounds a single cache round trip. Token lookups sit on
// the authentication path, so a slow server degrades to a miss.
const DefaultCacheTimeout = 150 * time.Millisecond

// RedisDB wraps a Redis client
type RedisDB struct {
	Client redis.UniversalClient
}

func clientOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:            cfg.Addr(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      1,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 64 * time.Millisecond,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     500 * time.Millisecond,
		WriteTimeout:    500 * time.Millisecond,
		PoolSize:        32,
		MinIdleConns:    4,
		PoolTimeout:     time.Second,
	}
}

// NewRedis connects to Redis and verifies the server answers
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(clientOptions(cfg))

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to Redis",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)

	return &RedisDB{Client: client}, nil
}

// Close closes the Redis connection
func (db *RedisDB) Close() error {
	if db.Client != nil {
		return db.Client.Close()
	}
	return nil
}

// Ping checks the server is reachable
func (db *RedisDB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx).Err()
}

// Cache is a string cache with a fixed TTL, used for validated tokens
type Cache struct {
	redis   *RedisDB
	ttl     time.Duration
	timeout time.Duration
}

// NewCache creates a cache whose entries expire after ttl
func NewCache(redis *RedisDB, ttl time.Duration) *Cache {
	return &Cache{
		redis:   redis,
		ttl:     ttl,
		timeout: DefaultCacheTimeout,
	}
}

// Get gets a cached value. Misses, read errors and timeouts all report false.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	val, err := c.redis.Client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("cache read failed", zap.Error(err))
		}
		return "", false
	}
	return val, true
}

// Set stores value under key for the cache TTL. A non-positive TTL disables
// writes.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if c.ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.redis.Client.Set(ctx, key, value, c.ttl).Err()
}
