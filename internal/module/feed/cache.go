package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PageCache stores rendered feed pages.
type PageCache interface {
	// GetPage loads a cached page into dest. Returns false on a miss.
	GetPage(ctx context.Context, key string, dest any) (bool, error)

	// SetPage stores a page under the key for the given TTL.
	SetPage(ctx context.Context, key string, value any, ttl time.Duration) error

	// Invalidate drops every cached page under the given key prefixes.
	Invalidate(ctx context.Context, prefixes ...string) error
}

// RedisPageCache is a PageCache on Redis with JSON-encoded pages.
type RedisPageCache struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedisPageCache creates a new Redis page cache.
func NewRedisPageCache(client redis.UniversalClient, namespace string) *RedisPageCache {
	return &RedisPageCache{
		client:    client,
		namespace: namespace,
	}
}

func (c *RedisPageCache) key(key string) string {
	return fmt.Sprintf("%s:%s", c.namespace, key)
}

// GetPage loads a cached page into dest.
func (c *RedisPageCache) GetPage(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("feed cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("feed cache decode: %w", err)
	}
	return true, nil
}

// SetPage stores a page under the key.
func (c *RedisPageCache) SetPage(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("feed cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("feed cache set: %w", err)
	}
	return nil
}

// Invalidate drops every cached page under the given prefixes.
func (c *RedisPageCache) Invalidate(ctx context.Context, prefixes ...string) error {
	for _, prefix := range prefixes {
		iter := c.client.Scan(ctx, 0, c.key(prefix)+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("feed cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("feed cache del: %w", err)
			}
		}
	}
	return nil
}
