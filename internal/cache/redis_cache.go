// Package cache provides the Redis-backed typeahead cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

// SuggestionCache stores suggestion lists keyed by normalized prefix
type SuggestionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSuggestionCache connects to redisURL and verifies the connection
func NewSuggestionCache(redisURL string, ttl time.Duration) (*SuggestionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewSuggestionCacheWithClient(client, ttl), nil
}

// NewSuggestionCacheWithClient creates a cache from an existing Redis client
func NewSuggestionCacheWithClient(client *redis.Client, ttl time.Duration) *SuggestionCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SuggestionCache{
		client: client,
		prefix: "suggest:",
		ttl:    ttl,
	}
}

func (c *SuggestionCache) key(prefix string) string {
	return c.prefix + prefix
}

// Get returns the cached suggestions for prefix. The boolean is false on a miss.
func (c *SuggestionCache) Get(ctx context.Context, prefix string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(prefix)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup suggestions: %w", err)
	}

	var suggestions []string
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, false, fmt.Errorf("unmarshal suggestions: %w", err)
	}
	return suggestions, true, nil
}

// Set stores suggestions for prefix until the TTL expires
func (c *SuggestionCache) Set(ctx context.Context, prefix string, suggestions []string) error {
	if suggestions == nil {
		suggestions = []string{}
	}
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}
	if err := c.client.Set(ctx, c.key(prefix), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("save suggestions: %w", err)
	}
	return nil
}

// Flush drops every cached suggestion list so a reindex is not followed by
// stale completions.
func (c *SuggestionCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan suggestions: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("flush suggestions: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *SuggestionCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable
func (c *SuggestionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
