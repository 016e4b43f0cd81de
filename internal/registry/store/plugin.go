package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moltbook/memory-bridge/internal/model"
)

// QueryFilter selects the candidate window for a memory query or timeline.
// Soft-deleted records are always excluded.
type QueryFilter struct {
	// OrgID and AgentID scope the query; both are required.
	OrgID   string
	AgentID string

	// Since excludes records created before it when non-nil.
	Since *time.Time

	// ContentType restricts to one content type when non-nil.
	ContentType *model.ContentType

	// Project restricts to records whose metadata projects list contains
	// it when non-empty.
	Project string

	// Limit caps the number of records returned; 0 means no cap.
	// Records are always returned newest-first.
	Limit int
}

// MemoryStore defines the primary data access interface for memory records.
type MemoryStore interface {
	// Insert persists a new record, assigning ID and CreatedAt when unset.
	Insert(ctx context.Context, m *model.Memory) (*model.Memory, error)

	// Query returns the candidate window matching the filter, newest-first.
	Query(ctx context.Context, filter QueryFilter) ([]model.Memory, error)

	// IncrementRetrievalCount bumps the retrieval counter for a record.
	// Callers treat failures as non-fatal.
	IncrementRetrievalCount(ctx context.Context, id uuid.UUID) error

	// UpdateMetadata replaces the metadata of an active record. Content is
	// never updated.
	UpdateMetadata(ctx context.Context, id uuid.UUID, md model.Metadata) error

	// SoftDelete marks the record invisible to all reads. Returns a
	// NotFoundError if no active record matches the scope.
	SoftDelete(ctx context.Context, orgID, agentID string, id uuid.UUID) error

	// LogQuery records a query analytics row. Callers treat failures as
	// non-fatal.
	LogQuery(ctx context.Context, entry model.QueryLog) error

	// Migrate creates or updates the backing schema.
	Migrate(ctx context.Context) error
}

// Loader creates a MemoryStore from config.
type Loader func(ctx context.Context) (MemoryStore, error)

// Plugin represents a store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
