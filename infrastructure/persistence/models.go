// Package persistence provides the GORM-backed stores for journal entries,
// embeddings, and the durable work queue.
package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Float64Slice stores a vector as a JSON array column, which works the
// same on SQLite and PostgreSQL.
type Float64Slice []float64

// Value serializes the slice for storage.
func (f Float64Slice) Value() (driver.Value, error) {
	return json.Marshal([]float64(f))
}

// Scan deserializes the slice from storage.
func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan vector: unsupported type %T", value)
	}
	return json.Unmarshal(data, (*[]float64)(f))
}

// EmbeddingModel is the database row for one stored embedding.
type EmbeddingModel struct {
	ID           string       `gorm:"primaryKey;type:varchar(36)"`
	EntityType   string       `gorm:"index:idx_embeddings_entity;type:varchar(16);not null"`
	EntityID     string       `gorm:"index:idx_embeddings_entity;type:varchar(36);not null"`
	Vector       Float64Slice `gorm:"type:json;not null"`
	ModelVersion string       `gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time
}

// TableName returns the embeddings table name.
func (EmbeddingModel) TableName() string { return "embeddings" }

// QueueItemModel is one persisted work-queue entry. Position preserves
// FIFO order across restarts; Item holds the "<entityType>:<entityId>"
// wire format (legacy rows may hold a bare message id).
type QueueItemModel struct {
	Position int64  `gorm:"primaryKey;autoIncrement"`
	Item     string `gorm:"type:varchar(64);not null"`
}

// TableName returns the queue table name.
func (QueueItemModel) TableName() string { return "memory_queue" }

// MessageModel is the database row for a journal message.
type MessageModel struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Day       string `gorm:"index;type:varchar(10);not null"`
	Text      string `gorm:"type:text;not null"`
	Deleted   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName returns the messages table name.
func (MessageModel) TableName() string { return "messages" }

// NoteModel is the database row for a journal note.
type NoteModel struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Day       string `gorm:"index;type:varchar(10);not null"`
	Title     string `gorm:"type:text;not null"`
	Body      string `gorm:"type:text;not null"`
	Deleted   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName returns the notes table name.
func (NoteModel) TableName() string { return "notes" }
