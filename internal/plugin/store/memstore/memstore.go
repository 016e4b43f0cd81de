// Package memstore implements an in-memory MemoryStore. It backs the
// "memory" datastore type, intended for tests and local experimentation;
// nothing survives a restart.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moltbook/memory-bridge/internal/model"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "memory",
		Loader: func(ctx context.Context) (registrystore.MemoryStore, error) {
			return New(), nil
		},
	})
}

// Store keeps all records in process memory.
type Store struct {
	mu       sync.RWMutex
	memories map[uuid.UUID]model.Memory
	queries  []model.QueryLog
}

func New() *Store {
	return &Store{memories: map[uuid.UUID]model.Memory{}}
}

func (s *Store) Insert(ctx context.Context, m *model.Memory) (*model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.memories[m.ID] = *m
	stored := s.memories[m.ID]
	return &stored, nil
}

func (s *Store) Query(ctx context.Context, filter registrystore.QueryFilter) ([]model.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []model.Memory
	for _, m := range s.memories {
		if m.DeletedAt != nil {
			continue
		}
		if m.OrgID != filter.OrgID || m.AgentID != filter.AgentID {
			continue
		}
		if filter.Since != nil && m.CreatedAt.Before(*filter.Since) {
			continue
		}
		if filter.ContentType != nil && m.ContentType != *filter.ContentType {
			continue
		}
		if filter.Project != "" && !containsProject(m.Metadata.Projects, filter.Project) {
			continue
		}
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

func containsProject(projects []string, project string) bool {
	for _, p := range projects {
		if p == project {
			return true
		}
	}
	return false
}

func (s *Store) IncrementRetrievalCount(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[id]
	if !ok || m.DeletedAt != nil {
		return nil
	}
	m.RetrievalCount++
	s.memories[id] = m
	return nil
}

func (s *Store) UpdateMetadata(ctx context.Context, id uuid.UUID, md model.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[id]
	if !ok || m.DeletedAt != nil {
		return &registrystore.NotFoundError{Resource: "memory", ID: id.String()}
	}
	m.Metadata = md
	s.memories[id] = m
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, orgID, agentID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[id]
	if !ok || m.DeletedAt != nil || m.OrgID != orgID || m.AgentID != agentID {
		return &registrystore.NotFoundError{Resource: "memory", ID: id.String()}
	}
	now := time.Now().UTC()
	m.DeletedAt = &now
	s.memories[id] = m
	return nil
}

func (s *Store) LogQuery(ctx context.Context, entry model.QueryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.queries = append(s.queries, entry)
	return nil
}

// QueryLogs returns a copy of the recorded query log. Test helper.
func (s *Store) QueryLogs() []model.QueryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.QueryLog, len(s.queries))
	copy(out, s.queries)
	return out
}

func (s *Store) Migrate(ctx context.Context) error {
	return nil
}
