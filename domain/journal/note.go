package journal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is a titled journal note. Unlike messages, notes carry a title that
// participates in embedding alongside the body.
type Note struct {
	id        string
	day       string
	title     string
	body      string
	deleted   bool
	createdAt time.Time
}

// NewNote creates a Note with a generated id.
func NewNote(day, title, body string) Note {
	return Note{
		id:        uuid.NewString(),
		day:       day,
		title:     title,
		body:      body,
		createdAt: time.Now().UTC(),
	}
}

// RestoreNote reconstructs a Note from persisted state.
func RestoreNote(id, day, title, body string, deleted bool, createdAt time.Time) Note {
	return Note{
		id:        id,
		day:       day,
		title:     title,
		body:      body,
		deleted:   deleted,
		createdAt: createdAt,
	}
}

// ID returns the note id.
func (n Note) ID() string { return n.id }

// Day returns the YYYY-MM-DD day the note belongs to.
func (n Note) Day() string { return n.day }

// Title returns the note title.
func (n Note) Title() string { return n.title }

// Body returns the note body.
func (n Note) Body() string { return n.body }

// Deleted reports whether the note has been soft-deleted.
func (n Note) Deleted() bool { return n.deleted }

// CreatedAt returns the creation timestamp.
func (n Note) CreatedAt() time.Time { return n.createdAt }

// EmbeddingText returns title and body joined for embedding, so that a
// search for words that only appear in the title still lands on the note.
func (n Note) EmbeddingText() string {
	switch {
	case n.title == "":
		return n.body
	case n.body == "":
		return n.title
	default:
		return strings.TrimSpace(n.title) + "\n\n" + n.body
	}
}

// WithDeleted returns a copy with the deleted flag set.
func (n Note) WithDeleted(deleted bool) Note {
	n.deleted = deleted
	return n
}
