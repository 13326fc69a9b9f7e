package memory

import (
	"context"

	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/repository"
)

// ChangeOp identifies what happened to an embedding record.
type ChangeOp string

// ChangeOp values.
const (
	ChangeInserted ChangeOp = "inserted"
	ChangeDeleted  ChangeOp = "deleted"
)

// ChangeEvent describes a mutation of the embedding store.
type ChangeEvent struct {
	Op  ChangeOp
	Ref Ref
}

// EmbeddingStore persists embedding records. Implementations validate
// vectors with ValidateVector before writing and notify subscribers after
// every successful insert or delete.
type EmbeddingStore interface {
	Save(ctx context.Context, embedding Embedding) error
	SaveAll(ctx context.Context, embeddings []Embedding) error
	Find(ctx context.Context, options ...repository.Option) ([]Embedding, error)
	FindOne(ctx context.Context, options ...repository.Option) (Embedding, error)
	Exists(ctx context.Context, ref Ref) (bool, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
	DeleteBy(ctx context.Context, options ...repository.Option) error
	// Subscribe registers a change listener and returns its cancel func.
	Subscribe(fn func(ChangeEvent)) (cancel func())
}

// QueueStore is the durable mirror of the in-memory work queue. Replace
// overwrites the persisted set with the current in-memory order; Load
// restores it at startup, tolerating legacy bare-id rows.
type QueueStore interface {
	Replace(ctx context.Context, refs []Ref) error
	Load(ctx context.Context) ([]Ref, error)
}

// WithEntityType filters embeddings by the "entity_type" column.
func WithEntityType(t journal.EntityType) repository.Option {
	return repository.WithCondition("entity_type", t.String())
}

// WithEntityID filters embeddings by the "entity_id" column.
func WithEntityID(id string) repository.Option {
	return repository.WithCondition("entity_id", id)
}

// WithRef filters embeddings by the full (entity type, entity id) pair.
func WithRef(ref Ref) repository.Option {
	return func(q repository.Query) repository.Query {
		q = repository.WithCondition("entity_type", ref.EntityType().String())(q)
		return repository.WithCondition("entity_id", ref.EntityID())(q)
	}
}

// WithEntityIDIn filters embeddings by entity id membership.
func WithEntityIDIn(ids []string) repository.Option {
	return repository.WithConditionIn("entity_id", ids)
}
