package noop

import (
	"context"
	"time"

	"github.com/moltbook/memory-bridge/internal/registry/cache"
)

func init() {
	cache.Register(cache.Plugin{
		Name: "none",
		Loader: func(ctx context.Context) (cache.QueryCache, error) {
			return &noopQueryCache{}, nil
		},
	})
}

type noopQueryCache struct{}

func (n *noopQueryCache) Available() bool { return false }
func (n *noopQueryCache) Get(_ context.Context, _, _, _ string) (*cache.CachedQueryResult, error) {
	return nil, nil
}
func (n *noopQueryCache) Set(_ context.Context, _, _, _ string, _ cache.CachedQueryResult, _ time.Duration) error {
	return nil
}
func (n *noopQueryCache) InvalidateAgent(_ context.Context, _, _ string) error { return nil }

var _ cache.QueryCache = (*noopQueryCache)(nil)
