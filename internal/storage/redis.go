package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/uploaddoc/domain"
	"github.com/you/uploaddoc/internal/config"
)

// RedisStore is a KeyValueStore backed by Redis, for deployments where
// the client runs on a host with shared session state (kiosk terminals,
// print-shop counters). Keys are namespaced with a configurable prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient connects to Redis and pings to verify connectivity
// before returning.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// NewRedisStore creates a Redis-backed store using the given client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Set implements domain.KeyValueStore.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

// Get implements domain.KeyValueStore.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrRecordNotFound
		}
		return "", err
	}
	return value, nil
}

// Delete implements domain.KeyValueStore.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
