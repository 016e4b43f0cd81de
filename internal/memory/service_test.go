package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/moltbook/memory-bridge/internal/config"
	"github.com/moltbook/memory-bridge/internal/model"
	ristrettocache "github.com/moltbook/memory-bridge/internal/plugin/cache/ristretto"
	"github.com/moltbook/memory-bridge/internal/plugin/store/memstore"
	"github.com/moltbook/memory-bridge/internal/registry/store"
)

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	st := memstore.New()
	qc, err := ristrettocache.New(time.Minute)
	require.NoError(t, err)
	return New(&cfg, st, qc, nil), st
}

func TestStoreAndQuery(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Store(ctx, "acme", StoreRequest{
		AgentID: "agent-1",
		Content: "We decided the roadmap for the billing service launch next quarter",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, stored.ID)
	require.Equal(t, model.ContentTypeConversation, stored.ContentType)
	require.NotEmpty(t, stored.Metadata.Keywords)
	require.GreaterOrEqual(t, stored.Metadata.Importance, 1)

	res, err := svc.Query(ctx, "acme", QueryRequest{AgentID: "agent-1", Query: "billing roadmap"})
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalCount)
	require.Len(t, res.Results, 1)
	require.Equal(t, stored.ID, res.Results[0].ID)
	require.False(t, res.Cached)
	require.NotEmpty(t, res.Results[0].MatchingKeywords)
}

func TestStore_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Store(ctx, "", StoreRequest{AgentID: "a", Content: "x"})
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "orgId", verr.Field)

	_, err = svc.Store(ctx, "acme", StoreRequest{Content: "x"})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "agentId", verr.Field)

	_, err = svc.Store(ctx, "acme", StoreRequest{AgentID: "a"})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "content", verr.Field)
}

func TestStore_RejectsOversizedContent(t *testing.T) {
	svc, _ := newTestService(t)
	big := make([]byte, config.DefaultConfig().MaxContentLength+1)
	for i := range big {
		big[i] = 'a'
	}

	_, err := svc.Store(context.Background(), "acme", StoreRequest{AgentID: "a", Content: string(big)})
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "content", verr.Field)
}

func TestStore_RejectsUnknownContentType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Store(context.Background(), "acme", StoreRequest{
		AgentID:     "a",
		Content:     "some content",
		ContentType: "daydream",
	})
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "contentType", verr.Field)
}

func TestQuery_RequiresQueryText(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Query(context.Background(), "acme", QueryRequest{AgentID: "a"})
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "query", verr.Field)
}

func TestQuery_CacheHitAndInvalidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Store(ctx, "acme", StoreRequest{
		AgentID: "agent-1",
		Content: "Deployed the payments service to production this afternoon",
	})
	require.NoError(t, err)

	req := QueryRequest{AgentID: "agent-1", Query: "payments deployment"}
	first, err := svc.Query(ctx, "acme", req)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.Query(ctx, "acme", req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.TotalCount, second.TotalCount)

	// Storing a new memory for the agent dumps its cached queries.
	stored, err := svc.Store(ctx, "acme", StoreRequest{
		AgentID: "agent-1",
		Content: "Payments deployment rolled back after the error rate spiked",
	})
	require.NoError(t, err)

	third, err := svc.Query(ctx, "acme", req)
	require.NoError(t, err)
	require.False(t, third.Cached)
	ids := make([]uuid.UUID, 0, len(third.Results))
	for _, r := range third.Results {
		ids = append(ids, r.ID)
	}
	require.Contains(t, ids, stored.ID)
}

func TestQuery_ProjectFilterBypassesCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Store(ctx, "acme", StoreRequest{
		AgentID:  "agent-1",
		Content:  "Sketched the ingestion pipeline for the atlas project",
		Projects: []string{"atlas"},
	})
	require.NoError(t, err)

	req := QueryRequest{AgentID: "agent-1", Query: "ingestion pipeline", Project: "atlas"}
	first, err := svc.Query(ctx, "acme", req)
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.Equal(t, 1, first.TotalCount)

	second, err := svc.Query(ctx, "acme", req)
	require.NoError(t, err)
	require.False(t, second.Cached)
}

func TestQuery_RecordsQueryLog(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.Query(ctx, "acme", QueryRequest{AgentID: "agent-1", Query: "anything at all"})
	require.NoError(t, err)

	logs := st.QueryLogs()
	require.Len(t, logs, 1)
	require.Equal(t, "acme", logs[0].OrgID)
	require.Equal(t, "agent-1", logs[0].AgentID)
	require.Equal(t, "anything at all", logs[0].Query)
	require.Equal(t, 0, logs[0].ResultCount)
}

func TestQuery_LimitTruncatesButCountsAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Store(ctx, "acme", StoreRequest{
			AgentID: "agent-1",
			Content: "Reviewed the search index rebuild schedule with the platform team",
		})
		require.NoError(t, err)
	}

	res, err := svc.Query(ctx, "acme", QueryRequest{AgentID: "agent-1", Query: "search index", Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	require.Equal(t, 4, res.TotalCount)
}

func TestTimeline_GroupsByDate(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	for i, at := range []time.Time{now, now, yesterday} {
		_, err := st.Insert(ctx, &model.Memory{
			OrgID:       "acme",
			AgentID:     "agent-1",
			Content:     "entry",
			ContentType: model.ContentTypeConversation,
			CreatedAt:   at,
			Metadata:    model.Metadata{Importance: i + 1},
		})
		require.NoError(t, err)
	}

	days, err := svc.Timeline(ctx, "acme", TimelineRequest{AgentID: "agent-1"})
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, now.Format("2006-01-02"), days[0].Date)
	require.Equal(t, 2, days[0].Count)
	require.Equal(t, yesterday.Format("2006-01-02"), days[1].Date)
	require.Equal(t, 1, days[1].Count)
}

func TestDelete_RemovesFromQueries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Store(ctx, "acme", StoreRequest{
		AgentID: "agent-1",
		Content: "Signed off the incident review for the checkout outage",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "acme", "agent-1", stored.ID))

	res, err := svc.Query(ctx, "acme", QueryRequest{AgentID: "agent-1", Query: "incident review"})
	require.NoError(t, err)
	require.Equal(t, 0, res.TotalCount)

	var nferr *store.NotFoundError
	require.ErrorAs(t, svc.Delete(ctx, "acme", "agent-1", stored.ID), &nferr)
}
