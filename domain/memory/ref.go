package memory

import (
	"fmt"
	"strings"

	"github.com/daybook-dev/daybook/domain/journal"
)

// Ref identifies a journal entry awaiting or holding an embedding.
// Its wire format is "<entityType>:<entityId>".
type Ref struct {
	entityType journal.EntityType
	entityID   string
}

// NewRef creates a Ref for the given entry.
func NewRef(entityType journal.EntityType, entityID string) Ref {
	return Ref{entityType: entityType, entityID: entityID}
}

// MessageRef creates a Ref for a message id.
func MessageRef(id string) Ref {
	return NewRef(journal.EntityTypeMessage, id)
}

// NoteRef creates a Ref for a note id.
func NoteRef(id string) Ref {
	return NewRef(journal.EntityTypeNote, id)
}

// ParseRef decodes the "<entityType>:<entityId>" wire format. A bare string
// with no separator is a legacy row written before notes existed and is
// treated as a message id. This is the only place that fallback lives;
// everything downstream works with the typed Ref.
func ParseRef(s string) (Ref, error) {
	if s == "" {
		return Ref{}, fmt.Errorf("%w: empty queue item", ErrEmptyInput)
	}
	head, tail, found := strings.Cut(s, ":")
	if !found {
		return MessageRef(s), nil
	}
	entityType, err := journal.ParseEntityType(head)
	if err != nil {
		return Ref{}, fmt.Errorf("parse queue item %q: %w", s, err)
	}
	if tail == "" {
		return Ref{}, fmt.Errorf("parse queue item %q: missing entity id", s)
	}
	return NewRef(entityType, tail), nil
}

// EntityType returns the entry type.
func (r Ref) EntityType() journal.EntityType { return r.entityType }

// EntityID returns the entry id.
func (r Ref) EntityID() string { return r.entityID }

// String returns the "<entityType>:<entityId>" wire format.
func (r Ref) String() string {
	return r.entityType.String() + ":" + r.entityID
}

// IsZero reports whether the ref is the zero value.
func (r Ref) IsZero() bool {
	return r.entityType == "" && r.entityID == ""
}
