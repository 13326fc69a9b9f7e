package memory_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/memory"
)

func unitVector(axis int) []float64 {
	v := make([]float64, memory.Dimensions)
	v[axis%memory.Dimensions] = 1
	return v
}

func TestParseRef(t *testing.T) {
	t.Run("typed message ref round-trips", func(t *testing.T) {
		ref, err := memory.ParseRef("message:abc-123")
		require.NoError(t, err)
		assert.Equal(t, journal.EntityTypeMessage, ref.EntityType())
		assert.Equal(t, "abc-123", ref.EntityID())
		assert.Equal(t, "message:abc-123", ref.String())
	})

	t.Run("typed note ref round-trips", func(t *testing.T) {
		ref, err := memory.ParseRef("note:n-9")
		require.NoError(t, err)
		assert.Equal(t, journal.EntityTypeNote, ref.EntityType())
		assert.Equal(t, "note:n-9", ref.String())
	})

	t.Run("legacy bare id is a message", func(t *testing.T) {
		ref, err := memory.ParseRef("old-queue-item")
		require.NoError(t, err)
		assert.Equal(t, journal.EntityTypeMessage, ref.EntityType())
		assert.Equal(t, "old-queue-item", ref.EntityID())
	})

	t.Run("empty item is rejected", func(t *testing.T) {
		_, err := memory.ParseRef("")
		assert.ErrorIs(t, err, memory.ErrEmptyInput)
	})

	t.Run("unknown entity type is rejected", func(t *testing.T) {
		_, err := memory.ParseRef("photo:p-1")
		assert.Error(t, err)
	})

	t.Run("missing entity id is rejected", func(t *testing.T) {
		_, err := memory.ParseRef("message:")
		assert.Error(t, err)
	})
}

func TestValidateVector(t *testing.T) {
	t.Run("accepts a unit vector", func(t *testing.T) {
		assert.NoError(t, memory.ValidateVector(unitVector(3)))
	})

	t.Run("accepts slight norm drift", func(t *testing.T) {
		v := make([]float64, memory.Dimensions)
		scale := 1.005 / math.Sqrt(float64(memory.Dimensions))
		for i := range v {
			v[i] = scale
		}
		assert.NoError(t, memory.ValidateVector(v))
	})

	t.Run("rejects wrong dimensions", func(t *testing.T) {
		err := memory.ValidateVector(make([]float64, 128))
		assert.ErrorIs(t, err, memory.ErrDimensionMismatch)
	})

	t.Run("rejects out-of-range component", func(t *testing.T) {
		v := unitVector(0)
		v[0] = 1.5
		err := memory.ValidateVector(v)
		assert.ErrorIs(t, err, memory.ErrInvalidVector)
		assert.NotErrorIs(t, err, memory.ErrStoreUnavailable, "shape violations are not store failures")
	})

	t.Run("rejects NaN component", func(t *testing.T) {
		v := unitVector(0)
		v[1] = math.NaN()
		assert.ErrorIs(t, memory.ValidateVector(v), memory.ErrInvalidVector)
	})

	t.Run("rejects non-unit norm", func(t *testing.T) {
		v := make([]float64, memory.Dimensions)
		v[0] = 0.5
		assert.ErrorIs(t, memory.ValidateVector(v), memory.ErrInvalidVector)
	})
}

func TestFormatModelVersion(t *testing.T) {
	assert.Equal(t, "all-MiniLM-L6-v2@v1", memory.FormatModelVersion("all-MiniLM-L6-v2", 1))
	assert.Equal(t, "text-embedding-3-small@v2", memory.FormatModelVersion("text-embedding-3-small", 2))
}

func TestNewEmbedding(t *testing.T) {
	vector := unitVector(7)
	embedding := memory.NewEmbedding(memory.MessageRef("m-1"), vector, "mock@v1")

	assert.NotEmpty(t, embedding.ID())
	assert.Equal(t, "message:m-1", embedding.Ref().String())
	assert.Equal(t, "mock@v1", embedding.ModelVersion())
	assert.False(t, embedding.CreatedAt().IsZero())

	// The constructor copies the vector; mutating the input must not leak in.
	vector[7] = -1
	assert.Equal(t, 1.0, embedding.Vector()[7])
}
