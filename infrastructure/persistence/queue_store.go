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

// QueueStore implements memory.QueueStore: the durable mirror of the
// in-memory work queue. Replace rewrites the whole table, which stays cheap
// because the queue holds at most a few hundred pending references.
type QueueStore struct {
	db     database.Database
	logger *slog.Logger
}

var _ memory.QueueStore = (*QueueStore)(nil)

// NewQueueStore creates a QueueStore.
func NewQueueStore(db database.Database, logger *slog.Logger) *QueueStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueStore{db: db, logger: logger}
}

// Replace overwrites the persisted queue with the given references in
// order, atomically.
func (s *QueueStore) Replace(ctx context.Context, refs []memory.Ref) error {
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&QueueItemModel{}).Error; err != nil {
			return err
		}
		if len(refs) == 0 {
			return nil
		}
		models := make([]QueueItemModel, len(refs))
		for i, ref := range refs {
			models[i] = QueueItemModel{Item: ref.String()}
		}
		return tx.Create(&models).Error
	})
	if err != nil {
		return fmt.Errorf("persist queue: %w: %v", memory.ErrStoreUnavailable, err)
	}
	return nil
}

// Load restores the persisted queue in FIFO order. Rows that fail to parse
// are dropped with a warning rather than wedging startup; legacy bare
// message ids parse fine.
func (s *QueueStore) Load(ctx context.Context) ([]memory.Ref, error) {
	var models []QueueItemModel
	session := database.ApplyOptions(s.db.Session(ctx), repository.WithOrderAsc("position"))
	if err := session.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load queue: %w: %v", memory.ErrStoreUnavailable, err)
	}
	refs := make([]memory.Ref, 0, len(models))
	for _, model := range models {
		ref, err := memory.ParseRef(model.Item)
		if err != nil {
			s.logger.Warn("dropping unparseable queue row", "item", model.Item, "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
