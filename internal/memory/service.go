// Package memory is the facade over the store, the cache, and the
// extraction/scoring/ranking pipeline. Route handlers call this package
// and nothing below it.
package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/moltbook/memory-bridge/internal/config"
	"github.com/moltbook/memory-bridge/internal/keywords"
	"github.com/moltbook/memory-bridge/internal/model"
	"github.com/moltbook/memory-bridge/internal/ranking"
	registrycache "github.com/moltbook/memory-bridge/internal/registry/cache"
	"github.com/moltbook/memory-bridge/internal/registry/store"
	"github.com/moltbook/memory-bridge/internal/scoring"
	"github.com/moltbook/memory-bridge/internal/security"
)

// EnrichmentQueue accepts records for asynchronous metadata enrichment.
// Enqueue returns false when the job was dropped (queue full or disabled).
type EnrichmentQueue interface {
	Enqueue(id uuid.UUID, orgID, agentID, content string, contentType model.ContentType, md model.Metadata) bool
}

// Service coordinates all memory operations for one process.
type Service struct {
	cfg      *config.Config
	store    store.MemoryStore
	cache    registrycache.QueryCache
	enricher EnrichmentQueue // may be nil
}

// New creates a Service. enricher may be nil to disable async enrichment.
func New(cfg *config.Config, st store.MemoryStore, qc registrycache.QueryCache, enricher EnrichmentQueue) *Service {
	return &Service{cfg: cfg, store: st, cache: qc, enricher: enricher}
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *Service) cacheCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.CacheTimeout)
}

// StoreRequest is the input for storing a memory.
type StoreRequest struct {
	AgentID     string   `json:"agentId"`
	Content     string   `json:"content"`
	ContentType string   `json:"contentType"`
	People      []string `json:"people"`
	Projects    []string `json:"projects"`
	Source      string   `json:"source"`
}

// Store validates, enriches, and persists a new memory, then invalidates
// the agent's cached queries.
func (s *Service) Store(ctx context.Context, orgID string, req StoreRequest) (*model.Memory, error) {
	if orgID == "" {
		return nil, &store.ValidationError{Field: "orgId", Message: "is required"}
	}
	if strings.TrimSpace(req.AgentID) == "" {
		return nil, &store.ValidationError{Field: "agentId", Message: "is required"}
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, &store.ValidationError{Field: "content", Message: "is required"}
	}
	if len(req.Content) > s.cfg.MaxContentLength {
		return nil, &store.ValidationError{Field: "content", Message: "exceeds maximum length"}
	}

	contentType := model.ContentTypeConversation
	if req.ContentType != "" {
		ct, err := model.ParseContentType(req.ContentType)
		if err != nil {
			return nil, &store.ValidationError{Field: "contentType", Message: err.Error()}
		}
		contentType = ct
	}

	// The write path uses naive tokenization to keep latency predictable.
	// The enricher re-extracts with the part-of-speech pass afterwards.
	kw := keywords.ExtractFastN(req.Content, s.cfg.MaxKeywords)
	if s.enricher == nil {
		kw = keywords.ExtractN(req.Content, s.cfg.MaxKeywords)
	}
	md := model.Metadata{
		Keywords:   kw,
		People:     req.People,
		Projects:   req.Projects,
		Importance: scoring.Score(req.Content, contentType, req.People, req.Projects),
		Source:     req.Source,
	}

	m := &model.Memory{
		OrgID:       orgID,
		AgentID:     req.AgentID,
		Content:     req.Content,
		ContentType: contentType,
		Metadata:    md,
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	stored, err := s.store.Insert(sctx, m)
	if err != nil {
		return nil, err
	}

	if security.MemoriesStoredTotal != nil {
		security.MemoriesStoredTotal.WithLabelValues(string(contentType)).Inc()
	}

	s.invalidateAgent(ctx, orgID, req.AgentID)

	if s.enricher != nil {
		if !s.enricher.Enqueue(stored.ID, orgID, req.AgentID, stored.Content, contentType, md) {
			log.Warn("Enrichment queue full; keeping fast-path metadata", "id", stored.ID)
		}
	}
	return stored, nil
}

// invalidateAgent drops the agent's cached queries. Best-effort.
func (s *Service) invalidateAgent(ctx context.Context, orgID, agentID string) {
	if s.cache == nil || !s.cache.Available() {
		return
	}
	cctx, cancel := s.cacheCtx(ctx)
	defer cancel()
	if err := s.cache.InvalidateAgent(cctx, orgID, agentID); err != nil {
		log.Warn("Cache invalidation failed", "org", orgID, "agent", agentID, "err", err)
	}
}

// QueryRequest is the input for a relevance-ranked query.
type QueryRequest struct {
	AgentID     string
	Query       string
	Limit       int    // 0 uses the configured default
	Days        int    // 0 uses the configured default
	ContentType *model.ContentType
	Project     string
}

// QueryResult is a ranked, possibly cached result set.
type QueryResult struct {
	Results       []ranking.RankedMemory `json:"results"`
	QueryKeywords []string               `json:"queryKeywords"`
	TotalCount    int                    `json:"totalCount"`
	Cached        bool                   `json:"cached"`
}

// Query extracts keywords from the query text, ranks the candidate window,
// and returns the top results. Results are served from cache when possible.
func (s *Service) Query(ctx context.Context, orgID string, req QueryRequest) (*QueryResult, error) {
	if orgID == "" {
		return nil, &store.ValidationError{Field: "orgId", Message: "is required"}
	}
	if strings.TrimSpace(req.AgentID) == "" {
		return nil, &store.ValidationError{Field: "agentId", Message: "is required"}
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, &store.ValidationError{Field: "query", Message: "is required"}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultQueryLimit
	}
	days := req.Days
	if days <= 0 {
		days = s.cfg.DefaultQueryDays
	}

	// Only unfiltered queries with default paging hit the cache; the key
	// identifies a query by text alone.
	cacheable := s.cache != nil && s.cache.Available() &&
		req.ContentType == nil && req.Project == "" &&
		limit == s.cfg.DefaultQueryLimit && days == s.cfg.DefaultQueryDays

	if cacheable {
		cctx, cancel := s.cacheCtx(ctx)
		cached, err := s.cache.Get(cctx, orgID, req.AgentID, req.Query)
		cancel()
		if err != nil {
			log.Warn("Cache get failed", "err", err)
		}
		if cached != nil {
			if security.QueryCacheHitsTotal != nil {
				security.QueryCacheHitsTotal.Inc()
			}
			return &QueryResult{
				Results:       cached.Results,
				QueryKeywords: cached.QueryKeywords,
				TotalCount:    cached.TotalCount,
				Cached:        true,
			}, nil
		}
		if security.QueryCacheMissesTotal != nil {
			security.QueryCacheMissesTotal.Inc()
		}
	}

	start := time.Now()
	queryKeywords := keywords.ExtractN(req.Query, s.cfg.MaxKeywords)

	since := time.Now().UTC().AddDate(0, 0, -days)
	sctx, cancel := s.storeCtx(ctx)
	candidates, err := s.store.Query(sctx, store.QueryFilter{
		OrgID:       orgID,
		AgentID:     req.AgentID,
		Since:       &since,
		ContentType: req.ContentType,
		Project:     req.Project,
		Limit:       limit * candidateWindowFactor,
	})
	cancel()
	if err != nil {
		return nil, err
	}

	ranked := ranking.Rank(candidates, queryKeywords, time.Now().UTC())
	total := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := &QueryResult{
		Results:       ranked,
		QueryKeywords: queryKeywords,
		TotalCount:    total,
	}

	s.bumpRetrievalCounts(ctx, ranked)
	s.recordQuery(ctx, orgID, req, queryKeywords, len(ranked), time.Since(start))

	if cacheable {
		cctx, cancel := s.cacheCtx(ctx)
		err := s.cache.Set(cctx, orgID, req.AgentID, req.Query, registrycache.CachedQueryResult{
			Results:       result.Results,
			QueryKeywords: result.QueryKeywords,
			TotalCount:    result.TotalCount,
		}, s.cfg.QueryCacheTTL)
		cancel()
		if err != nil {
			log.Warn("Cache set failed", "err", err)
		}
	}

	return result, nil
}

// candidateWindowFactor sizes the candidate window relative to the
// requested limit so ranking has something to reorder.
const candidateWindowFactor = 10

// recordQuery bumps retrieval counters and writes the analytics row.
// Both are best-effort; a failure never fails the query.
func (s *Service) recordQuery(ctx context.Context, orgID string, req QueryRequest, queryKeywords []string, resultCount int, elapsed time.Duration) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.LogQuery(sctx, model.QueryLog{
		OrgID:          orgID,
		AgentID:        req.AgentID,
		Query:          req.Query,
		QueryKeywords:  queryKeywords,
		ResultCount:    resultCount,
		ResponseTimeMs: elapsed.Milliseconds(),
	}); err != nil {
		log.Warn("Query log write failed", "err", err)
	}
}

// bumpRetrievalCounts increments the retrieval counter of each returned
// record. Best-effort.
func (s *Service) bumpRetrievalCounts(ctx context.Context, results []ranking.RankedMemory) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	for _, r := range results {
		if err := s.store.IncrementRetrievalCount(sctx, r.ID); err != nil {
			log.Warn("Retrieval count bump failed", "id", r.ID, "err", err)
			return
		}
	}
}

// TimelineRequest is the input for a timeline listing.
type TimelineRequest struct {
	AgentID     string
	Days        int // 0 uses the configured default
	ContentType *model.ContentType
	Project     string
}

// TimelineDay groups the memories created on one UTC date.
type TimelineDay struct {
	Date     string         `json:"date"`
	Count    int            `json:"count"`
	Memories []model.Memory `json:"memories"`
}

// Timeline returns recent memories grouped by UTC date, newest date first.
func (s *Service) Timeline(ctx context.Context, orgID string, req TimelineRequest) ([]TimelineDay, error) {
	if orgID == "" {
		return nil, &store.ValidationError{Field: "orgId", Message: "is required"}
	}
	if strings.TrimSpace(req.AgentID) == "" {
		return nil, &store.ValidationError{Field: "agentId", Message: "is required"}
	}
	days := req.Days
	if days <= 0 {
		days = s.cfg.DefaultTimelineDays
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	rows, err := s.store.Query(sctx, store.QueryFilter{
		OrgID:       orgID,
		AgentID:     req.AgentID,
		Since:       &since,
		ContentType: req.ContentType,
		Project:     req.Project,
	})
	if err != nil {
		return nil, err
	}

	byDate := map[string][]model.Memory{}
	for _, m := range rows {
		date := m.CreatedAt.UTC().Format("2006-01-02")
		byDate[date] = append(byDate[date], m)
	}
	out := make([]TimelineDay, 0, len(byDate))
	for date, memories := range byDate {
		out = append(out, TimelineDay{Date: date, Count: len(memories), Memories: memories})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Delete soft-deletes a memory and invalidates the agent's cached queries.
func (s *Service) Delete(ctx context.Context, orgID, agentID string, id uuid.UUID) error {
	if orgID == "" {
		return &store.ValidationError{Field: "orgId", Message: "is required"}
	}
	if strings.TrimSpace(agentID) == "" {
		return &store.ValidationError{Field: "agentId", Message: "is required"}
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.store.SoftDelete(sctx, orgID, agentID, id); err != nil {
		return err
	}

	s.invalidateAgent(ctx, orgID, agentID)
	return nil
}
