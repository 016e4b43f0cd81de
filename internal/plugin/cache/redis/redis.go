package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/moltbook/memory-bridge/internal/config"
	registrycache "github.com/moltbook/memory-bridge/internal/registry/cache"
)

const defaultTTL = 5 * time.Minute

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.QueryCache, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis cache: MEMORY_BRIDGE_REDIS_URL is required")
	}
	ttl := cfg.QueryCacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return LoadFromURLWithTTL(ctx, cfg.RedisURL, ttl)
}

// LoadFromURLWithTTL creates a query cache with an explicit default TTL.
func LoadFromURLWithTTL(ctx context.Context, redisURL string, ttl time.Duration) (registrycache.QueryCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisQueryCache{client: client, ttl: ttl}, nil
}

type redisQueryCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func (c *redisQueryCache) Available() bool {
	return true
}

func (c *redisQueryCache) Get(ctx context.Context, orgID, agentID, query string) (*registrycache.CachedQueryResult, error) {
	data, err := c.client.Get(ctx, registrycache.QueryKey(orgID, agentID, query)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cached registrycache.CachedQueryResult
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *redisQueryCache) Set(ctx context.Context, orgID, agentID, query string, result registrycache.CachedQueryResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, registrycache.QueryKey(orgID, agentID, query), data, ttl).Err()
}

// InvalidateAgent deletes every cached query for the org/agent pair using
// a cursor-based SCAN so large keyspaces are not blocked.
func (c *redisQueryCache) InvalidateAgent(ctx context.Context, orgID, agentID string) error {
	pattern := registrycache.AgentPattern(orgID, agentID)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var _ registrycache.QueryCache = (*redisQueryCache)(nil)
