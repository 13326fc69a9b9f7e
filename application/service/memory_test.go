package service_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-dev/daybook/application/service"
	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/memory"
	"github.com/daybook-dev/daybook/domain/search"
	"github.com/daybook-dev/daybook/infrastructure/provider"
)

// axisGenerator maps known texts to fixed orthogonal unit vectors so tests
// control the geometry exactly. Unknown texts share a fallback axis.
type axisGenerator struct {
	axes map[string]int
}

func newAxisGenerator(axes map[string]int) *axisGenerator {
	return &axisGenerator{axes: axes}
}

func (g *axisGenerator) Initialize(context.Context) error { return nil }

func (g *axisGenerator) Status() provider.Status {
	return provider.Status{Ready: true, Device: "test", Model: "axis", ModelVersion: "axis@v1"}
}

func (g *axisGenerator) Embed(ctx context.Context, text string) (provider.Result, error) {
	results, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return provider.Result{}, err
	}
	return results[0], nil
}

func (g *axisGenerator) EmbedBatch(_ context.Context, texts []string) ([]provider.Result, error) {
	results := make([]provider.Result, len(texts))
	for i, text := range texts {
		axis, ok := g.axes[text]
		if !ok {
			axis = memory.Dimensions - 1
		}
		vector := make([]float64, memory.Dimensions)
		vector[axis] = 1
		results[i] = provider.Result{Vector: vector, ModelVersion: "axis@v1", Timestamp: time.Now().UTC()}
	}
	return results, nil
}

func (g *axisGenerator) Close() error { return nil }

func newMemoryFixture(t *testing.T, generator provider.Generator, opts ...service.MemoryOption) (*fixture, *service.Memory) {
	t.Helper()
	f := newFixture(t, generator)
	m := service.NewMemory(f.indexer, f.embeddings, f.messages, f.notes, generator, nil, opts...)
	return f, m
}

func indexMessage(t *testing.T, f *fixture, day, text string) journal.Message {
	t.Helper()
	ctx := context.Background()
	message := f.addMessage(t, day, text)
	require.NoError(t, f.indexer.Enqueue(ctx, memory.MessageRef(message.ID())))
	require.NoError(t, f.indexer.DrainQueue(ctx))
	return message
}

func TestMemorySearch(t *testing.T) {
	ctx := context.Background()

	t.Run("most similar entry ranks first", func(t *testing.T) {
		f, m := newMemoryFixture(t, provider.NewMockGenerator())
		target := indexMessage(t, f, "2026-08-27", "coffee with dana downtown")
		indexMessage(t, f, "2026-08-26", "long run in the park")
		indexMessage(t, f, "2026-08-25", "fixed the leaking tap")

		results, err := m.Search(ctx, search.NewRequest("coffee with dana downtown"))
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, target.ID(), results[0].Ref().EntityID())
		assert.InDelta(t, 1.0, results[0].Score(), 1e-9)

		// Ranks are 1-based and dense.
		for i, r := range results {
			assert.Equal(t, i+1, r.Rank())
		}
	})

	t.Run("min score drops weak matches", func(t *testing.T) {
		f, m := newMemoryFixture(t, provider.NewMockGenerator())
		target := indexMessage(t, f, "2026-08-27", "coffee with dana downtown")
		indexMessage(t, f, "2026-08-26", "long run in the park")

		results, err := m.Search(ctx, search.NewRequest("coffee with dana downtown", search.WithMinScore(0.5)))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, target.ID(), results[0].Ref().EntityID())
	})

	t.Run("day filters apply after scoring", func(t *testing.T) {
		f, m := newMemoryFixture(t, provider.NewMockGenerator())
		indexMessage(t, f, "2026-08-25", "thinking about the move")
		later := indexMessage(t, f, "2026-08-27", "thinking about the move")

		results, err := m.Search(ctx, search.NewRequest("thinking about the move", search.WithDay("2026-08-27")))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, later.ID(), results[0].Ref().EntityID())
		assert.Equal(t, 1, results[0].Rank())

		results, err = m.Search(ctx, search.NewRequest("thinking about the move", search.WithDayRange("2026-08-26", "")))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, later.ID(), results[0].Ref().EntityID())
	})

	t.Run("entity type filter", func(t *testing.T) {
		f, m := newMemoryFixture(t, provider.NewMockGenerator())
		indexMessage(t, f, "2026-08-27", "garden on my mind")
		note := f.addNote(t, "2026-08-27", "Garden", "What to plant in spring.")
		require.NoError(t, f.indexer.Enqueue(ctx, memory.NoteRef(note.ID())))
		require.NoError(t, f.indexer.DrainQueue(ctx))

		results, err := m.Search(ctx, search.NewRequest("garden",
			search.WithEntityTypes(journal.EntityTypeNote)))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, journal.EntityTypeNote, results[0].Ref().EntityType())
		assert.Equal(t, "Garden", results[0].Title())
	})

	t.Run("entries deleted after indexing are skipped", func(t *testing.T) {
		f, m := newMemoryFixture(t, provider.NewMockGenerator())
		message := indexMessage(t, f, "2026-08-27", "soon to vanish")
		require.NoError(t, f.messages.Save(ctx, message.WithDeleted(true)))

		results, err := m.Search(ctx, search.NewRequest("soon to vanish"))
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("limit truncates and keeps ranks dense", func(t *testing.T) {
		generator := newAxisGenerator(map[string]int{
			"first entry":  0,
			"second entry": 1,
			"third entry":  2,
			"fourth entry": 3,
		})
		f, m := newMemoryFixture(t, generator)
		for _, text := range []string{"first entry", "second entry", "third entry", "fourth entry"} {
			indexMessage(t, f, "2026-08-27", text)
		}

		results, err := m.Search(ctx, search.NewRequest("first entry", search.WithLimit(2)))
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 1, results[0].Rank())
		assert.Equal(t, 2, results[1].Rank())
	})

	t.Run("configured default limit applies when the request has none", func(t *testing.T) {
		f, m := newMemoryFixture(t, provider.NewMockGenerator(), service.WithSearchLimit(2))
		for _, day := range []string{"2026-08-25", "2026-08-26", "2026-08-27"} {
			indexMessage(t, f, day, "same words every day")
		}

		results, err := m.Search(ctx, search.NewRequest("same words every day"))
		require.NoError(t, err)
		assert.Len(t, results, 2)

		// An explicit request limit overrides the configured default.
		results, err = m.Search(ctx, search.NewRequest("same words every day", search.WithLimit(3)))
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("empty index yields no results", func(t *testing.T) {
		_, m := newMemoryFixture(t, provider.NewMockGenerator())
		results, err := m.Search(ctx, search.NewRequest("anything"))
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("results carry day and excerpt", func(t *testing.T) {
		f, m := newMemoryFixture(t, provider.NewMockGenerator())
		indexMessage(t, f, "2026-08-27", "Met Dana for coffee. We talked about the move for hours.")

		results, err := m.Search(ctx, search.NewRequest("Met Dana for coffee. We talked about the move for hours."))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "2026-08-27", results[0].Day())
		assert.Equal(t, "Met Dana for coffee.", results[0].Excerpt())
	})
}

func TestMemoryIndexingFacade(t *testing.T) {
	ctx := context.Background()
	f, m := newMemoryFixture(t, provider.NewMockGenerator())

	message := f.addMessage(t, "2026-08-27", "queued through the facade")
	require.NoError(t, m.IndexMessage(ctx, message.ID()))
	require.NoError(t, m.DrainQueue(ctx))

	exists, err := f.embeddings.Exists(ctx, memory.MessageRef(message.ID()))
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, m.RemoveFromIndex(ctx, message.ID()))
	exists, err = f.embeddings.Exists(ctx, memory.MessageRef(message.ID()))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryAnalyzeRecurringThemes(t *testing.T) {
	ctx := context.Background()

	t.Run("recurring topics come back as themes", func(t *testing.T) {
		generator := newAxisGenerator(map[string]int{
			"garden work today":     0,
			"more garden work":      0,
			"garden all afternoon":  0,
			"dentist this morning":  1,
			"dentist follow-up":     1,
			"one-off errand uptown": 2,
		})
		f, m := newMemoryFixture(t, generator, service.WithRand(rand.New(rand.NewSource(42))))
		for _, text := range []string{
			"garden work today", "more garden work", "garden all afternoon",
			"dentist this morning", "dentist follow-up", "one-off errand uptown",
		} {
			indexMessage(t, f, "2026-08-27", text)
		}

		analysis, err := m.AnalyzeRecurringThemes(ctx, 2, 5)
		require.NoError(t, err)
		require.Len(t, analysis.Themes(), 2)
		assert.Equal(t, 3, analysis.Themes()[0].Size(), "largest theme first")
		assert.Equal(t, 2, analysis.Themes()[1].Size())
		assert.Len(t, analysis.Insights(), 2)
		assert.Contains(t, analysis.Summary(), "Found 2 recurring themes")
	})

	t.Run("empty index yields an empty analysis", func(t *testing.T) {
		_, m := newMemoryFixture(t, provider.NewMockGenerator())
		analysis, err := m.AnalyzeRecurringThemes(ctx, 2, 5)
		require.NoError(t, err)
		assert.Empty(t, analysis.Themes())
		assert.Equal(t, "No recurring themes found yet.", analysis.Summary())
	})

	t.Run("deleted entries are left out of the analysis", func(t *testing.T) {
		f, m := newMemoryFixture(t, provider.NewMockGenerator())
		message := indexMessage(t, f, "2026-08-27", "will be deleted")
		require.NoError(t, f.messages.Save(ctx, message.WithDeleted(true)))

		analysis, err := m.AnalyzeRecurringThemes(ctx, 1, 5)
		require.NoError(t, err)
		assert.Empty(t, analysis.Themes())
	})
}
