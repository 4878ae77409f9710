package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisNamespace prefixes every key written by RedisCache.
const DefaultRedisNamespace = "ruleflow:"

// RedisConfig configures a Redis-backed cache.
type RedisConfig struct {
	Addr        string        // host:port
	Password    string        // optional
	DB          int           // database index
	Namespace   string        // key prefix; defaults to DefaultRedisNamespace
	DialTimeout time.Duration // defaults to 5s
}

// RedisCache stores artifacts in Redis so that several server instances
// share rendered output. Expiry is delegated to Redis TTLs.
type RedisCache struct {
	client *redis.Client
	ns     string
}

// NewRedisCache connects to Redis and verifies the connection with PING.
// Connection failures are reported as ErrUnavailable.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis %s: %v", ErrUnavailable, cfg.Addr, err)
	}
	return NewRedisCacheFromClient(client, cfg.Namespace), nil
}

// NewRedisCacheFromClient wraps an existing client. An empty namespace uses
// DefaultRedisNamespace.
func NewRedisCacheFromClient(client *redis.Client, namespace string) *RedisCache {
	if namespace == "" {
		namespace = DefaultRedisNamespace
	}
	return &RedisCache{client: client, ns: namespace}
}

// Get retrieves a value from Redis. Network failures are retried.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := withRetry(ctx, isTransient, func() (err error) {
		data, err = c.client.Get(ctx, c.ns+key).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores a value in Redis. A ttl of zero means no expiry. Network
// failures are retried.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return withRetry(ctx, isTransient, func() error {
		return c.client.Set(ctx, c.ns+key, data, ttl).Err()
	})
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.ns+key).Err()
}

// Clear deletes every key in the cache namespace.
func (c *RedisCache) Clear(ctx context.Context) error {
	const batch = 100
	iter := c.client.Scan(ctx, 0, c.ns+"*", batch).Iterator()
	keys := make([]string, 0, batch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == batch {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// isTransient reports network-level failures worth retrying. redis.Nil and
// server replies are final.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne) || errors.Is(err, io.EOF)
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
