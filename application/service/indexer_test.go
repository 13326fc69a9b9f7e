package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-dev/daybook/application/service"
	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/memory"
	"github.com/daybook-dev/daybook/infrastructure/persistence"
	"github.com/daybook-dev/daybook/infrastructure/provider"
	"github.com/daybook-dev/daybook/internal/testdb"
)

type fixture struct {
	embeddings *persistence.EmbeddingStore
	queueStore *persistence.QueueStore
	messages   *persistence.MessageStore
	notes      *persistence.NoteStore
	generator  provider.Generator
	indexer    *service.Indexer
}

func newFixture(t *testing.T, generator provider.Generator, opts ...service.IndexerOption) *fixture {
	t.Helper()
	db := testdb.New(t)
	f := &fixture{
		embeddings: persistence.NewEmbeddingStore(db, nil),
		queueStore: persistence.NewQueueStore(db, nil),
		messages:   persistence.NewMessageStore(db, nil),
		notes:      persistence.NewNoteStore(db, nil),
		generator:  generator,
	}
	f.indexer = service.NewIndexer(f.queueStore, f.embeddings, f.messages, f.notes, generator, nil, opts...)
	return f
}

func (f *fixture) addMessage(t *testing.T, day, text string) journal.Message {
	t.Helper()
	message := journal.NewMessage(day, text)
	require.NoError(t, f.messages.Save(context.Background(), message))
	return message
}

func (f *fixture) addNote(t *testing.T, day, title, body string) journal.Note {
	t.Helper()
	note := journal.NewNote(day, title, body)
	require.NoError(t, f.notes.Save(context.Background(), note))
	return note
}

// flakyGenerator fails Embed for one poison text and delegates everything
// else.
type flakyGenerator struct {
	provider.Generator
	poison string
}

func (g *flakyGenerator) Embed(ctx context.Context, text string) (provider.Result, error) {
	if g.poison != "" && text == g.poison {
		return provider.Result{}, errors.New("transient model failure")
	}
	return g.Generator.Embed(ctx, text)
}

func TestIndexerEnqueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, provider.NewMockGenerator())

	ref := memory.MessageRef("m-1")
	require.NoError(t, f.indexer.Enqueue(ctx, ref))
	require.NoError(t, f.indexer.Enqueue(ctx, ref))
	assert.Equal(t, 1, f.indexer.QueueLength(), "re-enqueueing a queued ref is a no-op")

	// The durable mirror holds the same single entry.
	persisted, err := f.queueStore.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, ref, persisted[0])
}

func TestIndexerRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, provider.NewMockGenerator())

	refs := []memory.Ref{memory.MessageRef("a"), memory.NoteRef("b")}
	require.NoError(t, f.queueStore.Replace(ctx, refs))

	require.NoError(t, f.indexer.Restore(ctx))
	assert.Equal(t, 2, f.indexer.QueueLength())
}

func TestIndexerDrainQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes queued entries and empties the queue", func(t *testing.T) {
		f := newFixture(t, provider.NewMockGenerator())
		message := f.addMessage(t, "2026-08-27", "walked along the canal")
		note := f.addNote(t, "2026-08-27", "Garden", "Planted herbs.")

		require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef(message.ID())))
		require.NoError(t, f.indexer.Enqueue(ctx, memory.NoteRef(note.ID())))
		require.NoError(t, f.indexer.DrainQueue(ctx))

		assert.Zero(t, f.indexer.QueueLength())
		exists, err := f.embeddings.Exists(ctx, memory.MessageRef(message.ID()))
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = f.embeddings.Exists(ctx, memory.NoteRef(note.ID()))
		require.NoError(t, err)
		assert.True(t, exists)

		persisted, err := f.queueStore.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, persisted)
	})

	t.Run("vanished entries are dropped, not failed", func(t *testing.T) {
		f := newFixture(t, provider.NewMockGenerator())
		require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef("never-existed")))
		require.NoError(t, f.indexer.DrainQueue(ctx))

		assert.Zero(t, f.indexer.QueueLength())
		count, err := f.embeddings.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("soft-deleted entries are dropped", func(t *testing.T) {
		f := newFixture(t, provider.NewMockGenerator())
		message := f.addMessage(t, "2026-08-27", "short lived")
		require.NoError(t, f.messages.Save(ctx, message.WithDeleted(true)))

		require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef(message.ID())))
		require.NoError(t, f.indexer.DrainQueue(ctx))

		assert.Zero(t, f.indexer.QueueLength())
		count, err := f.embeddings.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("already indexed entries are not re-embedded", func(t *testing.T) {
		f := newFixture(t, provider.NewMockGenerator())
		message := f.addMessage(t, "2026-08-27", "once is enough")
		ref := memory.MessageRef(message.ID())

		require.NoError(t, f.indexer.Enqueue(ctx, ref))
		require.NoError(t, f.indexer.DrainQueue(ctx))
		first, err := f.embeddings.FindOne(ctx, memory.WithRef(ref))
		require.NoError(t, err)

		require.NoError(t, f.indexer.Enqueue(ctx, ref))
		require.NoError(t, f.indexer.DrainQueue(ctx))

		count, err := f.embeddings.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
		second, err := f.embeddings.FindOne(ctx, memory.WithRef(ref))
		require.NoError(t, err)
		assert.Equal(t, first.ID(), second.ID())
	})

	t.Run("failing entries are retained while the drain continues", func(t *testing.T) {
		flaky := &flakyGenerator{Generator: provider.NewMockGenerator(), poison: "model chokes on this"}
		f := newFixture(t, flaky)
		bad := f.addMessage(t, "2026-08-27", "model chokes on this")
		good := f.addMessage(t, "2026-08-27", "embeds just fine")

		require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef(bad.ID())))
		require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef(good.ID())))
		require.NoError(t, f.indexer.DrainQueue(ctx), "a per-item failure is not a drain failure")

		assert.Equal(t, 1, f.indexer.QueueLength(), "the failed entry stays queued")
		exists, err := f.embeddings.Exists(ctx, memory.MessageRef(good.ID()))
		require.NoError(t, err)
		assert.True(t, exists, "entries after the failure are still processed")

		// Once the generator recovers, the retained entry drains normally.
		flaky.poison = ""
		require.NoError(t, f.indexer.DrainQueue(ctx))
		assert.Zero(t, f.indexer.QueueLength())
	})

	t.Run("unready generator defers the drain and keeps the queue", func(t *testing.T) {
		f := newFixture(t, provider.NewFailingMockGenerator())
		message := f.addMessage(t, "2026-08-27", "waiting for the model")

		require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef(message.ID())))
		require.NoError(t, f.indexer.DrainQueue(ctx), "an unready generator is not an error")

		assert.Equal(t, 1, f.indexer.QueueLength())
		count, err := f.embeddings.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestIndexerDrainBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, provider.NewMockGenerator(), service.WithBatchSize(2))

	var refs []memory.Ref
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		message := f.addMessage(t, "2026-08-27", text)
		ref := memory.MessageRef(message.ID())
		refs = append(refs, ref)
		require.NoError(t, f.indexer.Enqueue(ctx, ref))
	}

	require.NoError(t, f.indexer.DrainBatch(ctx, refs, 2))

	count, err := f.embeddings.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
	assert.Zero(t, f.indexer.QueueLength())
}

func TestIndexerReindex(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the stored embedding", func(t *testing.T) {
		f := newFixture(t, provider.NewMockGenerator())
		message := f.addMessage(t, "2026-08-27", "first version")
		ref := memory.MessageRef(message.ID())

		require.NoError(t, f.indexer.Enqueue(ctx, ref))
		require.NoError(t, f.indexer.DrainQueue(ctx))
		original, err := f.embeddings.FindOne(ctx, memory.WithRef(ref))
		require.NoError(t, err)

		require.NoError(t, f.messages.Save(ctx, message.WithText("second version")))
		require.NoError(t, f.indexer.Reindex(ctx, ref))

		count, err := f.embeddings.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		replaced, err := f.embeddings.FindOne(ctx, memory.WithRef(ref))
		require.NoError(t, err)
		assert.NotEqual(t, original.ID(), replaced.ID())
		assert.NotEqual(t, original.Vector(), replaced.Vector())
	})

	t.Run("missing entry is an error", func(t *testing.T) {
		f := newFixture(t, provider.NewMockGenerator())
		err := f.indexer.Reindex(ctx, memory.MessageRef("gone"))
		assert.ErrorIs(t, err, memory.ErrEntityNotFound)
	})

	t.Run("soft-deleted entry is an error", func(t *testing.T) {
		f := newFixture(t, provider.NewMockGenerator())
		message := f.addMessage(t, "2026-08-27", "deleted later")
		require.NoError(t, f.messages.Save(ctx, message.WithDeleted(true)))

		err := f.indexer.Reindex(ctx, memory.MessageRef(message.ID()))
		assert.ErrorIs(t, err, memory.ErrEntityNotFound)
	})
}

func TestIndexerRemoveFromIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, provider.NewMockGenerator())

	message := f.addMessage(t, "2026-08-27", "to be removed")
	ref := memory.MessageRef(message.ID())
	require.NoError(t, f.indexer.Enqueue(ctx, ref))
	require.NoError(t, f.indexer.DrainQueue(ctx))

	require.NoError(t, f.indexer.RemoveFromIndex(ctx, ref))

	exists, err := f.embeddings.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Zero(t, f.indexer.QueueLength())

	// Removing an unindexed ref is a no-op.
	require.NoError(t, f.indexer.RemoveFromIndex(ctx, memory.MessageRef("never-indexed")))
}

func TestIndexerCleanupOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, provider.NewMockGenerator())

	live := f.addMessage(t, "2026-08-27", "still here")
	doomed := f.addMessage(t, "2026-08-27", "soft deleted")

	for _, ref := range []memory.Ref{memory.MessageRef(live.ID()), memory.MessageRef(doomed.ID())} {
		require.NoError(t, f.indexer.Enqueue(ctx, ref))
	}
	require.NoError(t, f.indexer.DrainQueue(ctx))

	// One embedding loses its entry entirely, one goes soft-deleted.
	vector := make([]float64, memory.Dimensions)
	vector[0] = 1
	require.NoError(t, f.embeddings.Save(ctx, memory.NewEmbedding(memory.MessageRef("vanished"), vector, "mock@v1")))
	require.NoError(t, f.messages.Save(ctx, doomed.WithDeleted(true)))

	removed, err := f.indexer.CleanupOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	exists, err := f.embeddings.Exists(ctx, memory.MessageRef(live.ID()))
	require.NoError(t, err)
	assert.True(t, exists, "live entries keep their embeddings")

	removed, err = f.indexer.CleanupOrphans(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed, "cleanup is idempotent")
}

func TestIndexerRebuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, provider.NewMockGenerator(), service.WithBatchSize(2))

	for i, text := range []string{"alpha", "beta", "gamma"} {
		message := f.addMessage(t, "2026-08-27", text)
		if i == 0 {
			require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef(message.ID())))
			require.NoError(t, f.indexer.DrainQueue(ctx))
		}
	}
	f.addNote(t, "2026-08-27", "Note", "A note body.")

	var progress []int
	err := f.indexer.Rebuild(ctx, func(done, total int) {
		progress = append(progress, done)
		assert.Equal(t, 4, total)
	})
	require.NoError(t, err)

	count, err := f.embeddings.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
	require.NotEmpty(t, progress)
	assert.Equal(t, 4, progress[len(progress)-1])
}

func TestIndexerStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, provider.NewMockGenerator())

	indexed := f.addMessage(t, "2026-08-27", "indexed")
	f.addMessage(t, "2026-08-27", "pending")
	f.addNote(t, "2026-08-27", "Note", "Body.")

	require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef(indexed.ID())))
	require.NoError(t, f.indexer.DrainQueue(ctx))
	require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef("waiting")))

	stats, err := f.indexer.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Messages().Total())
	assert.EqualValues(t, 1, stats.Messages().Indexed())
	assert.EqualValues(t, 1, stats.Messages().Pending())
	assert.EqualValues(t, 1, stats.Notes().Total())
	assert.EqualValues(t, 0, stats.Notes().Indexed())
	assert.Equal(t, 1, stats.QueueLength())
	assert.False(t, stats.Draining())
}
