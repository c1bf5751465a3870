// Package cache is the query cache shared by every module source. Entries
// are keyed by entity type plus filter parameters and dropped wholesale when
// a mutation touches the entity; nothing is patched in place, matching the
// refetch-after-mutation model of the dashboard this service fronts.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection.
func NewClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// Store is a Redis-backed query cache with JSON values.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Key builds a cache key from an entity type and its filter parameters.
// Empty parts are kept so "campaigns:csm:" and "campaigns:csm:spring"
// never collide.
func Key(entity string, parts ...string) string {
	return entity + ":" + strings.Join(parts, ":")
}

// Get unmarshals the cached value for key into dest and reports whether the
// key was present.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores val under key with the store's TTL.
func (s *Store) Set(ctx context.Context, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate removes the given entity:scope keys and every key below them.
// The scan pattern keeps the ":" separator, so wiping "campaigns:csm" leaves
// a sibling scope such as "campaigns:csm-west" untouched. Called after each
// successful mutation so the next read refetches.
func (s *Store) Invalidate(ctx context.Context, prefixes ...string) error {
	for _, prefix := range prefixes {
		if err := s.rdb.Del(ctx, prefix).Err(); err != nil {
			return fmt.Errorf("cache invalidate %s: %w", prefix, err)
		}
		iter := s.rdb.Scan(ctx, 0, prefix+":*", 0).Iterator()
		for iter.Next(ctx) {
			if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("cache invalidate %s: %w", prefix, err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("cache scan %s: %w", prefix, err)
		}
	}
	return nil
}
