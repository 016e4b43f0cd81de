package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/moltbook/memory-bridge/internal/model"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"
)

func insert(t *testing.T, s *Store, m model.Memory) *model.Memory {
	t.Helper()
	stored, err := s.Insert(context.Background(), &m)
	require.NoError(t, err)
	return stored
}

func TestQuery_Filters(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	insert(t, s, model.Memory{OrgID: "acme", AgentID: "a1", ContentType: model.ContentTypeAction, CreatedAt: now})
	insert(t, s, model.Memory{OrgID: "acme", AgentID: "a1", ContentType: model.ContentTypeConversation, CreatedAt: now.AddDate(0, 0, -40)})
	insert(t, s, model.Memory{OrgID: "acme", AgentID: "a2", ContentType: model.ContentTypeAction, CreatedAt: now})
	insert(t, s, model.Memory{OrgID: "globex", AgentID: "a1", ContentType: model.ContentTypeAction, CreatedAt: now})

	rows, err := s.Query(ctx, registrystore.QueryFilter{OrgID: "acme", AgentID: "a1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Newest first.
	require.Equal(t, model.ContentTypeAction, rows[0].ContentType)

	since := now.AddDate(0, 0, -30)
	rows, err = s.Query(ctx, registrystore.QueryFilter{OrgID: "acme", AgentID: "a1", Since: &since})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	ct := model.ContentTypeConversation
	rows, err = s.Query(ctx, registrystore.QueryFilter{OrgID: "acme", AgentID: "a1", ContentType: &ct})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, ct, rows[0].ContentType)
}

func TestQuery_ProjectFilter(t *testing.T) {
	s := New()
	ctx := context.Background()

	insert(t, s, model.Memory{OrgID: "acme", AgentID: "a1", Metadata: model.Metadata{Projects: []string{"atlas"}}})
	insert(t, s, model.Memory{OrgID: "acme", AgentID: "a1", Metadata: model.Metadata{Projects: []string{"hermes"}}})

	rows, err := s.Query(ctx, registrystore.QueryFilter{OrgID: "acme", AgentID: "a1", Project: "atlas"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, []string{"atlas"}, rows[0].Metadata.Projects)
}

func TestQuery_Limit(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		insert(t, s, model.Memory{OrgID: "acme", AgentID: "a1"})
	}

	rows, err := s.Query(context.Background(), registrystore.QueryFilter{OrgID: "acme", AgentID: "a1", Limit: 3})
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestSoftDelete_ScopedToOwner(t *testing.T) {
	s := New()
	ctx := context.Background()
	stored := insert(t, s, model.Memory{OrgID: "acme", AgentID: "a1"})

	var nferr *registrystore.NotFoundError
	require.ErrorAs(t, s.SoftDelete(ctx, "globex", "a1", stored.ID), &nferr)
	require.ErrorAs(t, s.SoftDelete(ctx, "acme", "other", stored.ID), &nferr)

	require.NoError(t, s.SoftDelete(ctx, "acme", "a1", stored.ID))

	rows, err := s.Query(ctx, registrystore.QueryFilter{OrgID: "acme", AgentID: "a1"})
	require.NoError(t, err)
	require.Empty(t, rows)

	require.ErrorAs(t, s.SoftDelete(ctx, "acme", "a1", stored.ID), &nferr)
}

func TestIncrementRetrievalCount(t *testing.T) {
	s := New()
	ctx := context.Background()
	stored := insert(t, s, model.Memory{OrgID: "acme", AgentID: "a1"})

	require.NoError(t, s.IncrementRetrievalCount(ctx, stored.ID))
	require.NoError(t, s.IncrementRetrievalCount(ctx, stored.ID))

	rows, err := s.Query(ctx, registrystore.QueryFilter{OrgID: "acme", AgentID: "a1"})
	require.NoError(t, err)
	require.Equal(t, 2, rows[0].RetrievalCount)
}

func TestUpdateMetadata_NotFound(t *testing.T) {
	s := New()
	var nferr *registrystore.NotFoundError
	require.ErrorAs(t, s.UpdateMetadata(context.Background(), uuid.New(), model.Metadata{}), &nferr)
}
