package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentType classifies what kind of agent experience a memory captures.
type ContentType string

const (
	ContentTypeConversation ContentType = "conversation"
	ContentTypeAction       ContentType = "action"
	ContentTypeInsight      ContentType = "insight"
	ContentTypeError        ContentType = "error"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{
	ContentTypeConversation,
	ContentTypeAction,
	ContentTypeInsight,
	ContentTypeError,
}

// ParseContentType validates a raw content type string.
func ParseContentType(raw string) (ContentType, error) {
	ct := ContentType(raw)
	for _, valid := range ContentTypes {
		if ct == valid {
			return ct, nil
		}
	}
	return "", fmt.Errorf("invalid content type %q; must be one of: conversation, action, insight, error", raw)
}

// Metadata holds the attributes derived (or supplied) at write time.
// Keywords and Importance are computed by the extraction/scoring pipeline
// unless the caller provides them.
type Metadata struct {
	Keywords   []string `json:"keywords"`
	People     []string `json:"people"`
	Projects   []string `json:"projects"`
	Importance int      `json:"importance"`
	Source     string   `json:"source"`
}

// Memory is a single stored unit of agent experience.
// Records are immutable after insert except for Metadata enrichment,
// RetrievalCount, and soft deletion via DeletedAt.
type Memory struct {
	// ID is the primary key (UUID), assigned by the store on insert.
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`

	// OrgID is the owning tenant. Every query is scoped to one org.
	OrgID string `json:"orgId" gorm:"not null;index:idx_memories_org_agent,priority:1;column:org_id"`

	// AgentID is the owning agent within the org.
	AgentID string `json:"agentId" gorm:"not null;index:idx_memories_org_agent,priority:2;column:agent_id"`

	// Content is the free-text body, at most MaxContentLength characters.
	Content string `json:"content" gorm:"not null"`

	// ContentType is one of conversation|action|insight|error.
	ContentType ContentType `json:"contentType" gorm:"not null;column:content_type"`

	// Metadata is the derived keyword/importance envelope, stored as JSON.
	Metadata Metadata `json:"metadata" gorm:"type:jsonb;serializer:json"`

	// CreatedAt is when the record was inserted. Immutable.
	CreatedAt time.Time `json:"createdAt" gorm:"not null;column:created_at"`

	// DeletedAt is the soft-delete marker. Non-null rows are invisible
	// to every read path but are not physically removed.
	DeletedAt *time.Time `json:"-" gorm:"index;column:deleted_at"`

	// RetrievalCount counts how many times this record was returned by a
	// query. Incremented best-effort; never used for correctness.
	RetrievalCount int `json:"retrievalCount" gorm:"not null;default:0;column:retrieval_count"`
}

// TableName implements gorm.Tabler.
func (Memory) TableName() string { return "memories" }

// QueryLog is an analytics row recorded (best-effort) for each memory query.
type QueryLog struct {
	ID             uuid.UUID `gorm:"primaryKey;type:uuid"`
	OrgID          string    `gorm:"not null;column:org_id"`
	AgentID        string    `gorm:"not null;column:agent_id"`
	Query          string    `gorm:"not null"`
	QueryKeywords  []string  `gorm:"type:jsonb;serializer:json;column:query_keywords"`
	ResultCount    int       `gorm:"not null;column:result_count"`
	ResponseTimeMs int64     `gorm:"not null;column:response_time_ms"`
	CreatedAt      time.Time `gorm:"not null;column:created_at"`
}

// TableName implements gorm.Tabler.
func (QueryLog) TableName() string { return "memory_queries" }
