package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm/clause"

	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/repository"
	"github.com/daybook-dev/daybook/internal/database"
)

// MessageStore implements journal.MessageStore on GORM.
type MessageStore struct {
	repo   database.Repository[journal.Message, MessageModel]
	logger *slog.Logger
}

var _ journal.MessageStore = (*MessageStore)(nil)

// NewMessageStore creates a MessageStore.
func NewMessageStore(db database.Database, logger *slog.Logger) *MessageStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageStore{
		repo:   database.NewRepository[journal.Message, MessageModel](db, messageMapper{}, "message"),
		logger: logger,
	}
}

// Save inserts or updates a message.
func (s *MessageStore) Save(ctx context.Context, message journal.Message) error {
	model := s.repo.Mapper().ToModel(message)
	err := s.repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"day", "text", "deleted"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save message %s: %w", message.ID(), err)
	}
	return nil
}

// Find retrieves messages matching the given options.
func (s *MessageStore) Find(ctx context.Context, options ...repository.Option) ([]journal.Message, error) {
	return s.repo.Find(ctx, options...)
}

// FindOne retrieves a single message matching the given options.
func (s *MessageStore) FindOne(ctx context.Context, options ...repository.Option) (journal.Message, error) {
	return s.repo.FindOne(ctx, options...)
}

// Count returns the number of messages matching the given options.
func (s *MessageStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	return s.repo.Count(ctx, options...)
}

// DeleteBy removes messages matching the given options.
func (s *MessageStore) DeleteBy(ctx context.Context, options ...repository.Option) error {
	return s.repo.DeleteBy(ctx, options...)
}

// NoteStore implements journal.NoteStore on GORM.
type NoteStore struct {
	repo   database.Repository[journal.Note, NoteModel]
	logger *slog.Logger
}

var _ journal.NoteStore = (*NoteStore)(nil)

// NewNoteStore creates a NoteStore.
func NewNoteStore(db database.Database, logger *slog.Logger) *NoteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteStore{
		repo:   database.NewRepository[journal.Note, NoteModel](db, noteMapper{}, "note"),
		logger: logger,
	}
}

// Save inserts or updates a note.
func (s *NoteStore) Save(ctx context.Context, note journal.Note) error {
	model := s.repo.Mapper().ToModel(note)
	err := s.repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"day", "title", "body", "deleted"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save note %s: %w", note.ID(), err)
	}
	return nil
}

// Find retrieves notes matching the given options.
func (s *NoteStore) Find(ctx context.Context, options ...repository.Option) ([]journal.Note, error) {
	return s.repo.Find(ctx, options...)
}

// FindOne retrieves a single note matching the given options.
func (s *NoteStore) FindOne(ctx context.Context, options ...repository.Option) (journal.Note, error) {
	return s.repo.FindOne(ctx, options...)
}

// Count returns the number of notes matching the given options.
func (s *NoteStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	return s.repo.Count(ctx, options...)
}

// DeleteBy removes notes matching the given options.
func (s *NoteStore) DeleteBy(ctx context.Context, options ...repository.Option) error {
	return s.repo.DeleteBy(ctx, options...)
}
