package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lottawords/internal/puzzle"
)

// RedisStore keeps the entry as a JSON string under one key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects lazily to the server named by url
// (redis://[user:pass@]host:port[/db]).
func NewRedisStore(url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts), key: key}, nil
}

// newRedisStoreWithClient wraps an existing client.
func newRedisStoreWithClient(c *redis.Client, key string) *RedisStore {
	return &RedisStore{client: c, key: key}
}

func (s *RedisStore) Get(ctx context.Context) (*puzzle.Entry, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decode(data)
}

func (s *RedisStore) Set(ctx context.Context, e *puzzle.Entry) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
