package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daybook-dev/daybook/internal/database"
)

// Migrate brings the schema up to date: one-time conversions of legacy
// layouts first, then GORM AutoMigrate for everything else. Safe to run
// repeatedly.
func Migrate(ctx context.Context, db database.Database) error {
	renamed, err := preMigrate(db)
	if err != nil {
		return fmt.Errorf("pre-migrate: %w", err)
	}

	if err := db.Session(ctx).AutoMigrate(
		&EmbeddingModel{},
		&QueueItemModel{},
		&MessageModel{},
		&NoteModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if renamed {
		// Rows carried over from the message-only schema have no entity
		// type yet; they are all messages by definition.
		if err := db.Session(ctx).Exec(
			`UPDATE embeddings SET entity_type = 'message' WHERE entity_type IS NULL OR entity_type = ''`,
		).Error; err != nil {
			return fmt.Errorf("backfill entity_type: %w", err)
		}
		slog.Info("one-time embeddings migration complete")
	}

	return nil
}

// preMigrate upgrades the legacy embeddings layout that keyed rows by a
// message_id column, from before notes could be indexed. It reports whether
// the rename happened so Migrate can backfill entity types afterwards.
func preMigrate(db database.Database) (bool, error) {
	migrator := db.GORM().Migrator()
	if !migrator.HasTable("embeddings") {
		return false, nil
	}
	if !migrator.HasColumn(&EmbeddingModel{}, "message_id") {
		return false, nil
	}
	if migrator.HasColumn(&EmbeddingModel{}, "entity_id") {
		return false, nil
	}

	slog.Warn("one-time database migration: converting message-keyed embeddings, do not interrupt")
	if err := db.GORM().Exec(`ALTER TABLE embeddings RENAME COLUMN message_id TO entity_id`).Error; err != nil {
		return false, fmt.Errorf("rename message_id: %w", err)
	}
	return true, nil
}
