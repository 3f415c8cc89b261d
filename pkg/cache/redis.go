package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache reads stats published by the market-data collectors.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis client and pings it.
func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	cfg := &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
		MinIdleConns: 2,
		Prefix:       "screener",
		PingTimeout:  5 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: cfg.Prefix,
	}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Health pings the server.
func (c *RedisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ReadHash reads a hash and its flag key inside one MULTI/EXEC, so a collector
// rewriting both never yields a half-written hash paired with a stale flag.
// A missing hash yields empty Fields.
func (c *RedisCache) ReadHash(ctx context.Context, hashKey, flagKey string) (HashSnapshot, error) {
	var (
		flag *redis.StringCmd
		hash *redis.MapStringStringCmd
	)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		flag = pipe.Get(ctx, c.wrapKey(flagKey))
		hash = pipe.HGetAll(ctx, c.wrapKey(hashKey))
		return nil
	})
	// a missing flag surfaces as redis.Nil from Exec
	if err != nil && !errors.Is(err, redis.Nil) {
		return HashSnapshot{}, err
	}
	return hashSnapshot(flag, hash)
}

func hashSnapshot(flag *redis.StringCmd, hash *redis.MapStringStringCmd) (HashSnapshot, error) {
	fields, err := hash.Result()
	if err != nil {
		return HashSnapshot{}, err
	}
	snap := HashSnapshot{Fields: fields}

	switch v, err := flag.Result(); {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return HashSnapshot{}, fmt.Errorf("flag: %w", err)
	default:
		snap.Flag, snap.HasFlag = v, true
	}
	return snap, nil
}

func (c *RedisCache) wrapKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}
