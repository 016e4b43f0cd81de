package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/moltbook/memory-bridge/internal/keywords"
	"github.com/moltbook/memory-bridge/internal/model"
	registrycache "github.com/moltbook/memory-bridge/internal/registry/cache"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"
	"github.com/moltbook/memory-bridge/internal/scoring"
	"github.com/moltbook/memory-bridge/internal/security"
)

// enrichmentJob carries everything needed to re-derive metadata without a
// store read.
type enrichmentJob struct {
	id          uuid.UUID
	orgID       string
	agentID     string
	content     string
	contentType model.ContentType
	metadata    model.Metadata
}

// Enricher re-runs keyword extraction with the part-of-speech pass on
// freshly stored memories and persists the improved metadata. The write
// path only does naive tokenization; this keeps request latency flat while
// still converging on the better keywords.
type Enricher struct {
	store       registrystore.MemoryStore
	cache       registrycache.QueryCache
	maxKeywords int
	jobs        chan enrichmentJob
}

// NewEnricher creates an enricher with a bounded job queue.
func NewEnricher(store registrystore.MemoryStore, cache registrycache.QueryCache, maxKeywords, queueSize int) *Enricher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Enricher{
		store:       store,
		cache:       cache,
		maxKeywords: maxKeywords,
		jobs:        make(chan enrichmentJob, queueSize),
	}
}

// Enqueue submits a record for enrichment. Returns false when the queue is
// full; the record then keeps its fast-path metadata.
func (e *Enricher) Enqueue(id uuid.UUID, orgID, agentID, content string, contentType model.ContentType, md model.Metadata) bool {
	select {
	case e.jobs <- enrichmentJob{
		id:          id,
		orgID:       orgID,
		agentID:     agentID,
		content:     content,
		contentType: contentType,
		metadata:    md,
	}:
		if security.EnrichmentQueueDepth != nil {
			security.EnrichmentQueueDepth.Set(float64(len(e.jobs)))
		}
		return true
	default:
		return false
	}
}

// Start drains the job queue until ctx is cancelled.
func (e *Enricher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-e.jobs:
			e.process(ctx, job)
			if security.EnrichmentQueueDepth != nil {
				security.EnrichmentQueueDepth.Set(float64(len(e.jobs)))
			}
		}
	}
}

func (e *Enricher) process(ctx context.Context, job enrichmentJob) {
	jctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	md := job.metadata
	md.Keywords = keywords.ExtractN(job.content, e.maxKeywords)
	md.Importance = scoring.Score(job.content, job.contentType, md.People, md.Projects)

	if err := e.store.UpdateMetadata(jctx, job.id, md); err != nil {
		log.Warn("Enrichment: metadata update failed", "id", job.id, "err", err)
		return
	}
	if e.cache != nil && e.cache.Available() {
		if err := e.cache.InvalidateAgent(jctx, job.orgID, job.agentID); err != nil {
			log.Warn("Enrichment: cache invalidation failed", "org", job.orgID, "agent", job.agentID, "err", err)
		}
	}
}
