package recon

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/getcher123/UD-MVP/internal/model"
)

// Cache is the fast idempotency lookup in front of the request log sheet.
// Misses fall through to the sheet, so a flushed cache only costs latency.
type Cache interface {
	Get(ctx context.Context, requestID string) (*model.RequestLogEntry, error)
	Set(ctx context.Context, entry model.RequestLogEntry) error
}

// RedisCache stores request log entries as JSON under a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates the cache. A zero ttl means entries never expire.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "recon:request:", ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, requestID string) (*model.RequestLogEntry, error) {
	data, err := c.client.Get(ctx, c.prefix+requestID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry model.RequestLogEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is a miss; the sheet remains authoritative.
		return nil, nil
	}
	return &entry, nil
}

func (c *RedisCache) Set(ctx context.Context, entry model.RequestLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+entry.RequestID, data, c.ttl).Err()
}
