package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore parses connString (redis:// or rediss://) and pings the
// server once so a bad URL fails at startup instead of on the first command.
func NewRedisStore(ctx context.Context, connString string) (*RedisStore, error) {
	opts, err := redis.ParseURL(connString)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", UnexpectedStoreError, err)
	}

	return &RedisStore{client: client}, nil
}

func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			return nil, ErrNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %w", UnexpectedStoreError, err)
		}
	}
	return data, nil
}

func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiry := ttl
	if ttl == 0 {
		// Plain SET would drop the expiry armed at creation time.
		expiry = redis.KeepTTL
	}

	if err := rs.client.Set(ctx, key, value, expiry).Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", UnexpectedStoreError, err)
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, key).Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", UnexpectedStoreError, err)
	}
	return nil
}

func (rs *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	iter := rs.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", UnexpectedStoreError, err)
	}

	return keys, nil
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
