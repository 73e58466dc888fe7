// Package cache stores rendered insight reports in Redis as JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// deleteBatch bounds the DEL commands queued per pipeline flush.
const deleteBatch = 500

// ReportCache implements insights.ReportCache on Redis.
type ReportCache struct {
	client *redis.Client
}

// NewReportCache wraps a Redis client.
func NewReportCache(client *redis.Client) *ReportCache {
	return &ReportCache{client: client}
}

// Get decodes the value at key into dst. A missing key is not an error.
func (c *ReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// A value we cannot decode is treated as a miss and dropped.
		c.client.Del(ctx, key)
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores v as JSON with the given TTL. A zero TTL keeps the key forever.
func (c *ReportCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

func (c *ReportCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix using SCAN and
// pipelined DELs, so large key sets never block the server.
func (c *ReportCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 200).Iterator()
	pipe := c.client.Pipeline()
	batch := 0
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		batch++
		if batch >= deleteBatch {
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("redis DEL pipeline: %w", err)
			}
			batch = 0
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis SCAN %s*: %w", prefix, err)
	}
	if batch > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis DEL pipeline: %w", err)
		}
	}
	return nil
}

// Ping checks the connection for readiness probes.
func (c *ReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
