// Package cache provides the Redis-backed client-state KV used when
// KV_BACKEND=redis, so the session key and favorites cache can be shared by
// several server processes.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis configures a Redis client from url and checks it with a PING.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return client, nil
}

// RedisKV stores string values under a common key prefix.
type RedisKV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisKV returns a KV over client. Keys are stored as prefix+key; a
// positive ttl expires idle entries.
func NewRedisKV(client *redis.Client, prefix string, ttl time.Duration) *RedisKV {
	return &RedisKV{client: client, prefix: prefix, ttl: ttl}
}

func (k *RedisKV) key(key string) string { return k.prefix + key }

// Get returns the value for key; ok is false when the key is absent.
func (k *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.client.Get(ctx, k.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores value under key.
func (k *RedisKV) Set(ctx context.Context, key, value string) error {
	return k.client.Set(ctx, k.key(key), value, k.ttl).Err()
}

// Delete removes key; a missing key is not an error.
func (k *RedisKV) Delete(ctx context.Context, key string) error {
	return k.client.Del(ctx, k.key(key)).Err()
}
