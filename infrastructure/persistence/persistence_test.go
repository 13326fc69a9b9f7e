package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/memory"
	"github.com/daybook-dev/daybook/domain/repository"
	"github.com/daybook-dev/daybook/infrastructure/persistence"
	"github.com/daybook-dev/daybook/internal/database"
	"github.com/daybook-dev/daybook/internal/testdb"
)

func unitVector(axis int) []float64 {
	v := make([]float64, memory.Dimensions)
	v[axis%memory.Dimensions] = 1
	return v
}

func TestEmbeddingStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and find round-trips", func(t *testing.T) {
		store := persistence.NewEmbeddingStore(testdb.New(t), nil)
		embedding := memory.NewEmbedding(memory.MessageRef("m-1"), unitVector(0), "mock@v1")
		require.NoError(t, store.Save(ctx, embedding))

		found, err := store.FindOne(ctx, memory.WithRef(memory.MessageRef("m-1")))
		require.NoError(t, err)
		assert.Equal(t, embedding.ID(), found.ID())
		assert.Equal(t, "message:m-1", found.Ref().String())
		assert.Equal(t, "mock@v1", found.ModelVersion())
		assert.Equal(t, unitVector(0), found.Vector())
	})

	t.Run("malformed vectors are rejected synchronously", func(t *testing.T) {
		store := persistence.NewEmbeddingStore(testdb.New(t), nil)
		bad := memory.NewEmbedding(memory.MessageRef("m-1"), make([]float64, 10), "mock@v1")
		err := store.Save(ctx, bad)
		assert.ErrorIs(t, err, memory.ErrDimensionMismatch)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("exists distinguishes refs by type and id", func(t *testing.T) {
		store := persistence.NewEmbeddingStore(testdb.New(t), nil)
		require.NoError(t, store.Save(ctx, memory.NewEmbedding(memory.MessageRef("e-1"), unitVector(1), "mock@v1")))

		exists, err := store.Exists(ctx, memory.MessageRef("e-1"))
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = store.Exists(ctx, memory.NoteRef("e-1"))
		require.NoError(t, err)
		assert.False(t, exists, "same id under another entity type is a different ref")

		exists, err = store.Exists(ctx, memory.MessageRef("e-2"))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("save all persists a batch", func(t *testing.T) {
		store := persistence.NewEmbeddingStore(testdb.New(t), nil)
		batch := []memory.Embedding{
			memory.NewEmbedding(memory.MessageRef("b-1"), unitVector(0), "mock@v1"),
			memory.NewEmbedding(memory.MessageRef("b-2"), unitVector(1), "mock@v1"),
			memory.NewEmbedding(memory.NoteRef("b-3"), unitVector(2), "mock@v1"),
		}
		require.NoError(t, store.SaveAll(ctx, batch))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		count, err = store.Count(ctx, memory.WithEntityType(journal.EntityTypeNote))
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("save all rejects the whole batch on one bad vector", func(t *testing.T) {
		store := persistence.NewEmbeddingStore(testdb.New(t), nil)
		batch := []memory.Embedding{
			memory.NewEmbedding(memory.MessageRef("b-1"), unitVector(0), "mock@v1"),
			memory.NewEmbedding(memory.MessageRef("b-2"), make([]float64, 3), "mock@v1"),
		}
		require.Error(t, store.SaveAll(ctx, batch))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("delete by ref removes only that ref", func(t *testing.T) {
		store := persistence.NewEmbeddingStore(testdb.New(t), nil)
		require.NoError(t, store.Save(ctx, memory.NewEmbedding(memory.MessageRef("d-1"), unitVector(0), "mock@v1")))
		require.NoError(t, store.Save(ctx, memory.NewEmbedding(memory.MessageRef("d-2"), unitVector(1), "mock@v1")))

		require.NoError(t, store.DeleteBy(ctx, memory.WithRef(memory.MessageRef("d-1"))))

		exists, err := store.Exists(ctx, memory.MessageRef("d-1"))
		require.NoError(t, err)
		assert.False(t, exists)
		exists, err = store.Exists(ctx, memory.MessageRef("d-2"))
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("subscribers see inserts and deletes", func(t *testing.T) {
		store := persistence.NewEmbeddingStore(testdb.New(t), nil)
		var events []memory.ChangeEvent
		cancel := store.Subscribe(func(e memory.ChangeEvent) { events = append(events, e) })

		embedding := memory.NewEmbedding(memory.MessageRef("s-1"), unitVector(0), "mock@v1")
		require.NoError(t, store.Save(ctx, embedding))
		require.NoError(t, store.DeleteBy(ctx, memory.WithRef(memory.MessageRef("s-1"))))

		require.Len(t, events, 2)
		assert.Equal(t, memory.ChangeInserted, events[0].Op)
		assert.Equal(t, memory.ChangeDeleted, events[1].Op)
		assert.Equal(t, "message:s-1", events[1].Ref.String())

		cancel()
		require.NoError(t, store.Save(ctx, memory.NewEmbedding(memory.MessageRef("s-2"), unitVector(1), "mock@v1")))
		assert.Len(t, events, 2, "cancelled subscriber hears nothing")
	})
}

func TestQueueStore(t *testing.T) {
	ctx := context.Background()

	t.Run("replace and load keep FIFO order", func(t *testing.T) {
		store := persistence.NewQueueStore(testdb.New(t), nil)
		refs := []memory.Ref{
			memory.MessageRef("q-1"),
			memory.NoteRef("q-2"),
			memory.MessageRef("q-3"),
		}
		require.NoError(t, store.Replace(ctx, refs))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, refs, loaded)
	})

	t.Run("replace overwrites previous contents", func(t *testing.T) {
		store := persistence.NewQueueStore(testdb.New(t), nil)
		require.NoError(t, store.Replace(ctx, []memory.Ref{memory.MessageRef("old")}))
		require.NoError(t, store.Replace(ctx, []memory.Ref{memory.MessageRef("new")}))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "message:new", loaded[0].String())
	})

	t.Run("replace with nothing empties the queue", func(t *testing.T) {
		store := persistence.NewQueueStore(testdb.New(t), nil)
		require.NoError(t, store.Replace(ctx, []memory.Ref{memory.MessageRef("x")}))
		require.NoError(t, store.Replace(ctx, nil))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("legacy bare ids load as message refs", func(t *testing.T) {
		db := testdb.New(t)
		store := persistence.NewQueueStore(db, nil)

		// A row written before notes existed carries just the message id.
		err := db.Session(ctx).Exec(
			"INSERT INTO memory_queue (item) VALUES (?)", "legacy-message-id",
		).Error
		require.NoError(t, err)

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, journal.EntityTypeMessage, loaded[0].EntityType())
		assert.Equal(t, "legacy-message-id", loaded[0].EntityID())
	})
}

func TestMessageStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save is an upsert", func(t *testing.T) {
		store := persistence.NewMessageStore(testdb.New(t), nil)
		message := journal.NewMessage("2026-08-27", "first draft")
		require.NoError(t, store.Save(ctx, message))
		require.NoError(t, store.Save(ctx, message.WithText("second draft")))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		found, err := store.FindOne(ctx, repository.WithID(message.ID()))
		require.NoError(t, err)
		assert.Equal(t, "second draft", found.Text())
	})

	t.Run("day filters use string ordering", func(t *testing.T) {
		store := persistence.NewMessageStore(testdb.New(t), nil)
		require.NoError(t, store.Save(ctx, journal.NewMessage("2026-01-05", "early")))
		require.NoError(t, store.Save(ctx, journal.NewMessage("2026-03-10", "middle")))
		require.NoError(t, store.Save(ctx, journal.NewMessage("2026-06-20", "late")))

		found, err := store.Find(ctx, journal.WithDayFrom("2026-02-01"), journal.WithDayTo("2026-05-31"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "middle", found[0].Text())
	})

	t.Run("ascending order applies on any column", func(t *testing.T) {
		store := persistence.NewMessageStore(testdb.New(t), nil)
		require.NoError(t, store.Save(ctx, journal.NewMessage("2026-06-20", "late")))
		require.NoError(t, store.Save(ctx, journal.NewMessage("2026-01-05", "early")))
		require.NoError(t, store.Save(ctx, journal.NewMessage("2026-03-10", "middle")))

		found, err := store.Find(ctx, repository.WithOrderAsc("day"))
		require.NoError(t, err)
		require.Len(t, found, 3)
		assert.Equal(t, "early", found[0].Text())
		assert.Equal(t, "middle", found[1].Text())
		assert.Equal(t, "late", found[2].Text())
	})

	t.Run("not-deleted filter hides soft deletions", func(t *testing.T) {
		store := persistence.NewMessageStore(testdb.New(t), nil)
		kept := journal.NewMessage("2026-08-27", "kept")
		gone := journal.NewMessage("2026-08-27", "gone")
		require.NoError(t, store.Save(ctx, kept))
		require.NoError(t, store.Save(ctx, gone.WithDeleted(true)))

		found, err := store.Find(ctx, journal.WithNotDeleted())
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, kept.ID(), found[0].ID())
	})

	t.Run("find one on a missing id reports not found", func(t *testing.T) {
		store := persistence.NewMessageStore(testdb.New(t), nil)
		_, err := store.FindOne(ctx, repository.WithID("nope"))
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestNoteStore(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewNoteStore(testdb.New(t), nil)

	note := journal.NewNote("2026-08-27", "Garden plans", "Plant tomatoes.")
	require.NoError(t, store.Save(ctx, note))

	found, err := store.FindOne(ctx, repository.WithID(note.ID()))
	require.NoError(t, err)
	assert.Equal(t, "Garden plans", found.Title())
	assert.Equal(t, "Plant tomatoes.", found.Body())
	assert.Equal(t, "2026-08-27", found.Day())
}
