package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores records as plain string values.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend keeps records for ttl after their last write; 0 means
// records never expire.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, val []byte) error {
	if err := b.client.Set(ctx, key, val, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// DeleteSessions removes all records whose session id matches the glob
// pattern. Records.Clear uses it to drop a session in one SCAN pass.
func (b *RedisBackend) DeleteSessions(ctx context.Context, pattern string) (int, error) {
	iter := b.client.Scan(ctx, 0, buildKey(pattern, "*"), 100).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := b.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("redis delete %s: %w", iter.Val(), err)
		}
		deleted++
	}
	return deleted, iter.Err()
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
