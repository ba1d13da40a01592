package redisrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-session-client/storage"
	"github.com/redis/go-redis/v9"
)

var _ storage.BatchRepo = (*RedisRepo)(nil)

const defaultPrefix = "session-client:"

// RedisRepo stores each key as a plain redis string under a prefix.
type RedisRepo struct {
	client redis.UniversalClient
	prefix string
}

// New creates a redis backed repo using the default key prefix.
func New(client redis.UniversalClient) *RedisRepo {
	return NewWithPrefix(client, defaultPrefix)
}

// NewWithPrefix creates a redis backed repo with a custom key prefix.
func NewWithPrefix(client redis.UniversalClient, prefix string) *RedisRepo {
	return &RedisRepo{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisRepo) key(k string) string {
	return r.prefix + k
}

func (r *RedisRepo) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

func (r *RedisRepo) Remove(ctx context.Context, key string) error {
	return r.RemoveAll(ctx, key)
}

// SetAll writes every entry inside MULTI/EXEC.
func (r *RedisRepo) SetAll(ctx context.Context, entries map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set all: %w", err)
	}
	return nil
}

func (r *RedisRepo) RemoveAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, r.key(k))
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
