package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/moltbook/memory-bridge/internal/model"
	"github.com/moltbook/memory-bridge/internal/registry/store"
	"github.com/moltbook/memory-bridge/internal/security"
)

// Wrap returns a MemoryStore that records StoreLatency for every operation.
func Wrap(inner store.MemoryStore) store.MemoryStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.MemoryStore
}

func observe(op string, start time.Time) {
	security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) Insert(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	defer observe("insert", time.Now())
	return m.inner.Insert(ctx, mem)
}

func (m *metricsStore) Query(ctx context.Context, filter store.QueryFilter) ([]model.Memory, error) {
	defer observe("query", time.Now())
	return m.inner.Query(ctx, filter)
}

func (m *metricsStore) IncrementRetrievalCount(ctx context.Context, id uuid.UUID) error {
	defer observe("increment_retrieval_count", time.Now())
	return m.inner.IncrementRetrievalCount(ctx, id)
}

func (m *metricsStore) UpdateMetadata(ctx context.Context, id uuid.UUID, md model.Metadata) error {
	defer observe("update_metadata", time.Now())
	return m.inner.UpdateMetadata(ctx, id, md)
}

func (m *metricsStore) SoftDelete(ctx context.Context, orgID, agentID string, id uuid.UUID) error {
	defer observe("soft_delete", time.Now())
	return m.inner.SoftDelete(ctx, orgID, agentID, id)
}

func (m *metricsStore) LogQuery(ctx context.Context, entry model.QueryLog) error {
	defer observe("log_query", time.Now())
	return m.inner.LogQuery(ctx, entry)
}

func (m *metricsStore) Migrate(ctx context.Context) error {
	defer observe("migrate", time.Now())
	return m.inner.Migrate(ctx)
}
