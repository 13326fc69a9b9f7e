package journal

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single free-form journal message written on a given day.
type Message struct {
	id        string
	day       string
	text      string
	deleted   bool
	createdAt time.Time
}

// NewMessage creates a Message with a generated id.
func NewMessage(day, text string) Message {
	return Message{
		id:        uuid.NewString(),
		day:       day,
		text:      text,
		createdAt: time.Now().UTC(),
	}
}

// RestoreMessage reconstructs a Message from persisted state.
func RestoreMessage(id, day, text string, deleted bool, createdAt time.Time) Message {
	return Message{
		id:        id,
		day:       day,
		text:      text,
		deleted:   deleted,
		createdAt: createdAt,
	}
}

// ID returns the message id.
func (m Message) ID() string { return m.id }

// Day returns the YYYY-MM-DD day the message belongs to.
func (m Message) Day() string { return m.day }

// Text returns the message body.
func (m Message) Text() string { return m.text }

// Deleted reports whether the message has been soft-deleted.
func (m Message) Deleted() bool { return m.deleted }

// CreatedAt returns the creation timestamp.
func (m Message) CreatedAt() time.Time { return m.createdAt }

// EmbeddingText returns the text embedded for this message.
func (m Message) EmbeddingText() string { return m.text }

// WithDeleted returns a copy with the deleted flag set.
func (m Message) WithDeleted(deleted bool) Message {
	m.deleted = deleted
	return m
}

// WithText returns a copy with the body replaced.
func (m Message) WithText(text string) Message {
	m.text = text
	return m
}
