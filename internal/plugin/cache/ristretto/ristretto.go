// Package ristretto implements the "memory" query cache on an in-process
// ristretto cache. Ristretto cannot enumerate keys, so per-agent
// invalidation is done with an epoch counter: every key embeds the current
// epoch for its org/agent pair, and bumping the epoch orphans all previous
// keys until TTL expiry evicts them.
package ristretto

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/moltbook/memory-bridge/internal/config"
	registrycache "github.com/moltbook/memory-bridge/internal/registry/cache"
)

const (
	defaultTTL  = 5 * time.Minute
	numCounters = 100_000
	maxCost     = 64 << 20 // 64 MB
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name: "memory",
		Loader: func(ctx context.Context) (registrycache.QueryCache, error) {
			ttl := defaultTTL
			if cfg := config.FromContext(ctx); cfg != nil && cfg.QueryCacheTTL > 0 {
				ttl = cfg.QueryCacheTTL
			}
			return New(ttl)
		},
	})
}

// New creates an in-process query cache with the given default TTL.
func New(ttl time.Duration) (*QueryCache, error) {
	inner, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	return &QueryCache{
		inner:  inner,
		ttl:    ttl,
		epochs: map[string]uint64{},
	}, nil
}

// QueryCache is an in-process QueryCache backed by ristretto.
type QueryCache struct {
	inner *ristretto.Cache[string, []byte]
	ttl   time.Duration

	mu     sync.Mutex
	epochs map[string]uint64
}

func (c *QueryCache) epoch(orgID, agentID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[orgID+":"+agentID]
}

func (c *QueryCache) key(orgID, agentID, query string) string {
	return fmt.Sprintf("%d:%s", c.epoch(orgID, agentID), registrycache.QueryKey(orgID, agentID, query))
}

func (c *QueryCache) Available() bool {
	return true
}

func (c *QueryCache) Get(ctx context.Context, orgID, agentID, query string) (*registrycache.CachedQueryResult, error) {
	data, found := c.inner.Get(c.key(orgID, agentID, query))
	if !found {
		return nil, nil
	}
	var cached registrycache.CachedQueryResult
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *QueryCache) Set(ctx context.Context, orgID, agentID, query string, result registrycache.CachedQueryResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	c.inner.SetWithTTL(c.key(orgID, agentID, query), data, int64(len(data)), ttl)
	// Ristretto admits writes asynchronously; wait so a Get right after a
	// Set sees the entry.
	c.inner.Wait()
	return nil
}

func (c *QueryCache) InvalidateAgent(ctx context.Context, orgID, agentID string) error {
	c.mu.Lock()
	c.epochs[orgID+":"+agentID]++
	c.mu.Unlock()
	return nil
}

var _ registrycache.QueryCache = (*QueryCache)(nil)
