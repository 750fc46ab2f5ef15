//go:build redis

// Package redisstore implements session.Store on Redis, string values
// under a configurable key prefix with an optional TTL. Grounded on
// the teacher's checkpoint/store RedisStore.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voocel/mas/memory"
	"github.com/voocel/mas/session"
)

// Config configures the Redis connection and key namespacing.
type Config struct {
	Addr      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// DefaultConfig returns sane local-development defaults.
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		KeyPrefix: "mas:session:",
		TTL:       24 * time.Hour,
	}
}

// Store is a Redis-backed session.Store.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis per cfg and verifies the connection with a
// Ping before returning.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore: connect: %w", err)
	}
	return &Store{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func (s *Store) Save(ctx context.Context, key string, mem memory.Memory) error {
	data, err := session.Encode(mem)
	if err != nil {
		return fmt.Errorf("redisstore: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string, mem memory.Memory) error {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("redisstore: session %q not found", key)
		}
		return fmt.Errorf("redisstore: get: %w", err)
	}
	return session.Decode(data, mem)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redisstore: del: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.client.Close() }

var _ session.Store = (*Store)(nil)
