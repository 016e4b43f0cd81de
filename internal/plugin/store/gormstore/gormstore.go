// Package gormstore implements the memory store on top of gorm. The same
// implementation backs both the postgres and sqlite plugins; only the JSON
// project filter differs per dialect.
package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moltbook/memory-bridge/internal/model"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Store is a gorm-backed MemoryStore.
type Store struct {
	db      *gorm.DB
	dialect string
}

// New wraps an open gorm handle. dialect must be DialectPostgres or
// DialectSQLite.
func New(db *gorm.DB, dialect string) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) Insert(ctx context.Context, m *model.Memory) (*model.Memory, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("failed to insert memory: %w", err)
	}
	return m, nil
}

func (s *Store) Query(ctx context.Context, filter registrystore.QueryFilter) ([]model.Memory, error) {
	q := s.db.WithContext(ctx).
		Where("org_id = ? AND agent_id = ?", filter.OrgID, filter.AgentID).
		Where("deleted_at IS NULL")
	if filter.Since != nil {
		q = q.Where("created_at >= ?", filter.Since.UTC())
	}
	if filter.ContentType != nil {
		q = q.Where("content_type = ?", string(*filter.ContentType))
	}
	if filter.Project != "" {
		q = s.applyProjectFilter(q, filter.Project)
	}
	q = q.Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []model.Memory
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	return rows, nil
}

// applyProjectFilter narrows to records whose metadata projects array
// contains the project. Postgres uses the jsonb containment operator;
// sqlite walks the array with json_each.
func (s *Store) applyProjectFilter(q *gorm.DB, project string) *gorm.DB {
	if s.dialect == DialectPostgres {
		contains, _ := json.Marshal([]string{project})
		return q.Where("metadata -> 'projects' @> ?", string(contains))
	}
	return q.Where(
		"EXISTS (SELECT 1 FROM json_each(memories.metadata, '$.projects') WHERE json_each.value = ?)",
		project,
	)
}

func (s *Store) IncrementRetrievalCount(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&model.Memory{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("retrieval_count", gorm.Expr("retrieval_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment retrieval count: %w", err)
	}
	return nil
}

func (s *Store) UpdateMetadata(ctx context.Context, id uuid.UUID, md model.Metadata) error {
	result := s.db.WithContext(ctx).
		Model(&model.Memory{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("metadata", md)
	if result.Error != nil {
		return fmt.Errorf("failed to update metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &registrystore.NotFoundError{Resource: "memory", ID: id.String()}
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, orgID, agentID string, id uuid.UUID) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&model.Memory{}).
		Where("id = ? AND org_id = ? AND agent_id = ? AND deleted_at IS NULL", id, orgID, agentID).
		Update("deleted_at", &now)
	if result.Error != nil {
		return fmt.Errorf("failed to delete memory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &registrystore.NotFoundError{Resource: "memory", ID: id.String()}
	}
	return nil
}

func (s *Store) LogQuery(ctx context.Context, entry model.QueryLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to log query: %w", err)
	}
	return nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Memory{}, &model.QueryLog{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
