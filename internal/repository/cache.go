package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/projectsquall/battle-server-go/internal/config"
)

// SnapshotCache keeps recent match snapshots in redis so read-mostly state
// queries skip postgres. A nil cache is a no-op.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache connects to redis per config. Returns nil (disabled) when
// no address is configured.
func NewSnapshotCache(ctx context.Context, cfg config.RedisConfig) (*SnapshotCache, error) {
	if cfg.Address == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &SnapshotCache{client: client, ttl: cfg.SnapshotTTL}, nil
}

func snapshotKey(matchID string) string {
	return "battle:snapshot:" + matchID
}

// Put stores a snapshot under the match id.
func (c *SnapshotCache) Put(ctx context.Context, matchID string, data []byte) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, snapshotKey(matchID), data, c.ttl).Err()
}

// Get returns the cached snapshot, or (nil, nil) on a miss.
func (c *SnapshotCache) Get(ctx context.Context, matchID string) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, snapshotKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

// Invalidate drops the cached snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context, matchID string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, snapshotKey(matchID)).Err()
}

// Close releases the redis connection.
func (c *SnapshotCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
