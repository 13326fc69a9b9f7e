package journal

import "fmt"

// EntityType identifies the kind of journal entry an embedding refers to.
// It is a closed set: switches over EntityType should be exhaustive and
// treat unknown values as an error rather than silently defaulting.
type EntityType string

// EntityType values.
const (
	EntityTypeMessage EntityType = "message"
	EntityTypeNote    EntityType = "note"
)

// EntityTypes returns all known entity types.
func EntityTypes() []EntityType {
	return []EntityType{EntityTypeMessage, EntityTypeNote}
}

// ParseEntityType validates a raw string against the known entity types.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityTypeMessage:
		return EntityTypeMessage, nil
	case EntityTypeNote:
		return EntityTypeNote, nil
	default:
		return "", fmt.Errorf("unknown entity type %q", s)
	}
}

// String returns the wire spelling of the entity type.
func (t EntityType) String() string {
	return string(t)
}

// Valid reports whether the entity type is one of the known values.
func (t EntityType) Valid() bool {
	return t == EntityTypeMessage || t == EntityTypeNote
}

// Entity is the behavior shared by all indexable journal entries.
type Entity interface {
	ID() string
	Day() string
	Deleted() bool
	// EmbeddingText returns the text that is embedded for this entry.
	EmbeddingText() string
}
