package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estimate/backend/internal/domain/shared"
	"github.com/estimate/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "estimate:"

// RedisKeyValueStore implements KeyValueStore using Redis strings.
// Keys are namespaced with a prefix so several sheets can share a server.
type RedisKeyValueStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisKeyValueStore connects to Redis and verifies the connection
func NewRedisKeyValueStore(cfg config.RedisConfig) (*RedisKeyValueStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisKeyValueStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisKeyValueStoreWithClient creates a store with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisKeyValueStoreWithClient(client *redis.Client, keyPrefix string) *RedisKeyValueStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisKeyValueStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the value stored under key
func (s *RedisKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key without expiry
func (s *RedisKeyValueStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *RedisKeyValueStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisKeyValueStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection
func (s *RedisKeyValueStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure RedisKeyValueStore implements KeyValueStore
var _ shared.KeyValueStore = (*RedisKeyValueStore)(nil)
