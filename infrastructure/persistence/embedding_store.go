package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/daybook-dev/daybook/domain/memory"
	"github.com/daybook-dev/daybook/domain/repository"
	"github.com/daybook-dev/daybook/internal/database"
)

// saveAllBatchSize bounds one INSERT when bulk-saving embeddings.
const saveAllBatchSize = 100

// EmbeddingStore implements memory.EmbeddingStore on GORM. Vectors are
// validated before every write so malformed data is rejected synchronously,
// and subscribers are notified after every successful mutation.
type EmbeddingStore struct {
	repo     database.Repository[memory.Embedding, EmbeddingModel]
	notifier *notifier
	logger   *slog.Logger
}

var _ memory.EmbeddingStore = (*EmbeddingStore)(nil)

// NewEmbeddingStore creates an EmbeddingStore.
func NewEmbeddingStore(db database.Database, logger *slog.Logger) *EmbeddingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingStore{
		repo:     database.NewRepository[memory.Embedding, EmbeddingModel](db, embeddingMapper{}, "embedding"),
		notifier: newNotifier(),
		logger:   logger,
	}
}

// Save persists one embedding.
func (s *EmbeddingStore) Save(ctx context.Context, embedding memory.Embedding) error {
	if err := memory.ValidateVector(embedding.Vector()); err != nil {
		return fmt.Errorf("save embedding for %s: %w", embedding.Ref(), err)
	}
	model := s.repo.Mapper().ToModel(embedding)
	if err := s.repo.DB(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("save embedding for %s: %w: %v", embedding.Ref(), memory.ErrStoreUnavailable, err)
	}
	s.notifier.publish(memory.ChangeEvent{Op: memory.ChangeInserted, Ref: embedding.Ref()})
	return nil
}

// SaveAll persists embeddings in batches inside one transaction.
func (s *EmbeddingStore) SaveAll(ctx context.Context, embeddings []memory.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]EmbeddingModel, len(embeddings))
	for i, embedding := range embeddings {
		if err := memory.ValidateVector(embedding.Vector()); err != nil {
			return fmt.Errorf("save embedding for %s: %w", embedding.Ref(), err)
		}
		models[i] = s.repo.Mapper().ToModel(embedding)
	}

	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, saveAllBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("save %d embeddings: %w: %v", len(embeddings), memory.ErrStoreUnavailable, err)
	}
	for _, embedding := range embeddings {
		s.notifier.publish(memory.ChangeEvent{Op: memory.ChangeInserted, Ref: embedding.Ref()})
	}
	return nil
}

// Find retrieves embeddings matching the given options.
func (s *EmbeddingStore) Find(ctx context.Context, options ...repository.Option) ([]memory.Embedding, error) {
	return s.repo.Find(ctx, options...)
}

// FindOne retrieves a single embedding matching the given options.
func (s *EmbeddingStore) FindOne(ctx context.Context, options ...repository.Option) (memory.Embedding, error) {
	return s.repo.FindOne(ctx, options...)
}

// Exists reports whether an embedding is stored for the given reference.
func (s *EmbeddingStore) Exists(ctx context.Context, ref memory.Ref) (bool, error) {
	return s.repo.Exists(ctx, memory.WithRef(ref))
}

// Count returns the number of embeddings matching the given options.
func (s *EmbeddingStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	return s.repo.Count(ctx, options...)
}

// DeleteBy removes embeddings matching the given options and notifies
// subscribers of every removed reference.
func (s *EmbeddingStore) DeleteBy(ctx context.Context, options ...repository.Option) error {
	doomed, err := s.repo.Find(ctx, options...)
	if err != nil {
		return err
	}
	if len(doomed) == 0 {
		return nil
	}
	ids := make([]string, len(doomed))
	for i, embedding := range doomed {
		ids[i] = embedding.ID()
	}
	if err := s.repo.DeleteBy(ctx, repository.WithIDIn(ids)); err != nil {
		return err
	}
	for _, embedding := range doomed {
		s.notifier.publish(memory.ChangeEvent{Op: memory.ChangeDeleted, Ref: embedding.Ref()})
	}
	return nil
}

// Subscribe registers a change listener and returns its cancel func.
func (s *EmbeddingStore) Subscribe(fn func(memory.ChangeEvent)) func() {
	return s.notifier.subscribe(fn)
}
