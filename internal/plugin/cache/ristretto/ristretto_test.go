package ristretto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	registrycache "github.com/moltbook/memory-bridge/internal/registry/cache"
)

func TestSetGetRoundTrip(t *testing.T) {
	qc, err := New(time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := qc.Get(ctx, "acme", "agent-1", "roadmap")
	require.NoError(t, err)
	require.Nil(t, got)

	want := registrycache.CachedQueryResult{
		QueryKeywords: []string{"roadmap"},
		TotalCount:    3,
	}
	require.NoError(t, qc.Set(ctx, "acme", "agent-1", "roadmap", want, 0))

	got, err = qc.Get(ctx, "acme", "agent-1", "roadmap")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, want.QueryKeywords, got.QueryKeywords)
	require.Equal(t, want.TotalCount, got.TotalCount)
}

func TestInvalidateAgent_IsScoped(t *testing.T) {
	qc, err := New(time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	result := registrycache.CachedQueryResult{TotalCount: 1}
	require.NoError(t, qc.Set(ctx, "acme", "agent-1", "roadmap", result, 0))
	require.NoError(t, qc.Set(ctx, "acme", "agent-2", "roadmap", result, 0))

	require.NoError(t, qc.InvalidateAgent(ctx, "acme", "agent-1"))

	got, err := qc.Get(ctx, "acme", "agent-1", "roadmap")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = qc.Get(ctx, "acme", "agent-2", "roadmap")
	require.NoError(t, err)
	require.NotNil(t, got)
}
