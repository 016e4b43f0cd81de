package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/moltbook/memory-bridge/internal/model"
	"github.com/moltbook/memory-bridge/internal/plugin/store/memstore"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"
)

func TestEnqueue_ReportsFullQueue(t *testing.T) {
	e := NewEnricher(memstore.New(), nil, 15, 1)

	require.True(t, e.Enqueue(uuid.New(), "acme", "agent-1", "first", model.ContentTypeConversation, model.Metadata{}))
	require.False(t, e.Enqueue(uuid.New(), "acme", "agent-1", "second", model.ContentTypeConversation, model.Metadata{}))
}

func TestProcess_UpdatesMetadata(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	stored, err := st.Insert(ctx, &model.Memory{
		OrgID:       "acme",
		AgentID:     "agent-1",
		Content:     "Investigated the database connection leak in the importer",
		ContentType: model.ContentTypeInsight,
		Metadata:    model.Metadata{Keywords: []string{"investigated"}, Importance: 5},
	})
	require.NoError(t, err)

	e := NewEnricher(st, nil, 15, 4)
	e.process(ctx, enrichmentJob{
		id:          stored.ID,
		orgID:       "acme",
		agentID:     "agent-1",
		content:     stored.Content,
		contentType: stored.ContentType,
		metadata:    stored.Metadata,
	})

	rows, err := st.Query(ctx, registrystore.QueryFilter{OrgID: "acme", AgentID: "agent-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotEmpty(t, rows[0].Metadata.Keywords)
	// Insight records score at least base + 2.
	require.GreaterOrEqual(t, rows[0].Metadata.Importance, 7)
}

func TestStart_DrainsQueue(t *testing.T) {
	st := memstore.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stored, err := st.Insert(ctx, &model.Memory{
		OrgID:       "acme",
		AgentID:     "agent-1",
		Content:     "Rotated the staging credentials after the audit",
		ContentType: model.ContentTypeAction,
	})
	require.NoError(t, err)

	e := NewEnricher(st, nil, 15, 4)
	go e.Start(ctx)
	require.True(t, e.Enqueue(stored.ID, "acme", "agent-1", stored.Content, stored.ContentType, stored.Metadata))

	require.Eventually(t, func() bool {
		rows, err := st.Query(context.Background(), registrystore.QueryFilter{OrgID: "acme", AgentID: "agent-1"})
		return err == nil && len(rows) == 1 && len(rows[0].Metadata.Keywords) > 0
	}, 2*time.Second, 10*time.Millisecond)
}
