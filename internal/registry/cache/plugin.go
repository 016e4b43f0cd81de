package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/moltbook/memory-bridge/internal/ranking"
)

// CachedQueryResult holds a ranked query result set for one query key.
type CachedQueryResult struct {
	Results       []ranking.RankedMemory `json:"results"`
	QueryKeywords []string               `json:"queryKeywords"`
	TotalCount    int                    `json:"totalCount"`
}

// QueryKey builds the cache key for a query. The query text is base64
// encoded so arbitrary user input cannot collide with the key structure.
func QueryKey(orgID, agentID, query string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(query))
	return fmt.Sprintf("query:%s:%s:%s", orgID, agentID, encoded)
}

// AgentPattern returns the glob pattern matching every cached query for
// an org/agent pair. Used by backends that invalidate by key scan.
func AgentPattern(orgID, agentID string) string {
	return fmt.Sprintf("query:%s:%s:*", orgID, agentID)
}

// QueryCache caches ranked query results keyed by QueryKey.
type QueryCache interface {
	// Available reports whether the backend is usable. Callers skip the
	// cache entirely when it returns false.
	Available() bool

	// Get returns the cached result for key, or nil on miss.
	Get(ctx context.Context, orgID, agentID, query string) (*CachedQueryResult, error)

	// Set stores the result for key with the given TTL.
	Set(ctx context.Context, orgID, agentID, query string, result CachedQueryResult, ttl time.Duration) error

	// InvalidateAgent drops every cached result for the org/agent pair.
	InvalidateAgent(ctx context.Context, orgID, agentID string) error
}

// Loader creates a cache from config.
type Loader func(ctx context.Context) (QueryCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}
