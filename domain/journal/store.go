package journal

import (
	"context"

	"github.com/daybook-dev/daybook/domain/repository"
)

// MessageStore persists journal messages.
type MessageStore interface {
	Save(ctx context.Context, message Message) error
	Find(ctx context.Context, options ...repository.Option) ([]Message, error)
	FindOne(ctx context.Context, options ...repository.Option) (Message, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
	DeleteBy(ctx context.Context, options ...repository.Option) error
}

// NoteStore persists journal notes.
type NoteStore interface {
	Save(ctx context.Context, note Note) error
	Find(ctx context.Context, options ...repository.Option) ([]Note, error)
	FindOne(ctx context.Context, options ...repository.Option) (Note, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
	DeleteBy(ctx context.Context, options ...repository.Option) error
}

// WithDay filters by the "day" column.
func WithDay(day string) repository.Option {
	return repository.WithCondition("day", day)
}

// WithDayFrom filters to days on or after the given YYYY-MM-DD day.
func WithDayFrom(day string) repository.Option {
	return repository.WithConditionGTE("day", day)
}

// WithDayTo filters to days on or before the given YYYY-MM-DD day.
func WithDayTo(day string) repository.Option {
	return repository.WithConditionLTE("day", day)
}

// WithNotDeleted excludes soft-deleted entries.
func WithNotDeleted() repository.Option {
	return repository.WithCondition("deleted", false)
}
