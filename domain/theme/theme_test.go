package theme_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-dev/daybook/domain/memory"
	"github.com/daybook-dev/daybook/domain/theme"
)

const dims = 16

// axisVector builds a unit vector pointing along one axis, optionally
// tilted a little toward a second axis so every input stays distinct.
func axisVector(axis int, tiltAxis int, tilt float64) []float64 {
	v := make([]float64, dims)
	v[axis] = math.Sqrt(1 - tilt*tilt)
	if tilt != 0 {
		v[tiltAxis] = tilt
	}
	return v
}

// twoGroups returns six distinct unit vectors: three near axis 0, three
// near axis 1. The groups are orthogonal, so any seeding converges to the
// same two clusters.
func twoGroups() [][]float64 {
	return [][]float64{
		axisVector(0, 2, 0),
		axisVector(0, 2, 0.1),
		axisVector(0, 2, -0.1),
		axisVector(1, 3, 0),
		axisVector(1, 3, 0.1),
		axisVector(1, 3, -0.1),
	}
}

func TestKMeans(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	t.Run("separates two orthogonal groups", func(t *testing.T) {
		clusters, err := theme.KMeans(twoGroups(), 2, theme.DefaultMaxIterations, rng)
		require.NoError(t, err)
		require.Len(t, clusters, 2)
		for _, cluster := range clusters {
			assert.Equal(t, 3, cluster.Size())
			assert.Greater(t, cluster.Cohesion(), 0.9)
		}
	})

	t.Run("identical vectors collapse to one cluster", func(t *testing.T) {
		vectors := [][]float64{
			axisVector(0, 0, 0),
			axisVector(0, 0, 0),
			axisVector(0, 0, 0),
			axisVector(0, 0, 0),
		}
		clusters, err := theme.KMeans(vectors, 2, theme.DefaultMaxIterations, rng)
		require.NoError(t, err)
		require.Len(t, clusters, 1, "the empty cluster is dropped from the result")
		assert.Equal(t, 4, clusters[0].Size())
		assert.InDelta(t, 1.0, clusters[0].Cohesion(), 1e-9)
	})

	t.Run("singleton cluster has cohesion 1", func(t *testing.T) {
		vectors := [][]float64{axisVector(0, 0, 0)}
		clusters, err := theme.KMeans(vectors, 3, theme.DefaultMaxIterations, rng)
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.Equal(t, 1.0, clusters[0].Cohesion())
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := theme.KMeans(nil, 2, theme.DefaultMaxIterations, rng)
		assert.ErrorIs(t, err, memory.ErrEmptyInput)
	})

	t.Run("non-positive k is rejected", func(t *testing.T) {
		_, err := theme.KMeans(twoGroups(), 0, theme.DefaultMaxIterations, rng)
		assert.Error(t, err)
	})

	t.Run("mismatched dimensions are rejected", func(t *testing.T) {
		vectors := [][]float64{axisVector(0, 0, 0), make([]float64, dims+1)}
		_, err := theme.KMeans(vectors, 1, theme.DefaultMaxIterations, rng)
		assert.ErrorIs(t, err, memory.ErrDimensionMismatch)
	})
}

func TestIdentifyRecurringThemes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	texts := []string{
		"Worked on the garden. Tomatoes are in.",
		"More garden work, weeding mostly.",
		"Garden again, planted herbs.",
		"Dentist appointment in the morning.",
		"Dentist follow-up, all fine.",
		"Random errand downtown.",
	}

	t.Run("recurring clusters become themes", func(t *testing.T) {
		themes, err := theme.IdentifyRecurringThemes(twoGroups(), texts, 2, 5, rng)
		require.NoError(t, err)
		require.Len(t, themes, 2)
		assert.GreaterOrEqual(t, themes[0].Size(), themes[1].Size(), "largest theme first")
		for _, th := range themes {
			assert.Equal(t, 3, th.Size())
			assert.NotEmpty(t, th.KeyPhrase())
			assert.NotEmpty(t, th.Representative())
		}
	})

	t.Run("clusters below min frequency are dropped", func(t *testing.T) {
		vectors := [][]float64{
			axisVector(0, 2, 0),
			axisVector(0, 2, 0.1),
			axisVector(0, 2, -0.1),
			axisVector(1, 3, 0),
		}
		themes, err := theme.IdentifyRecurringThemes(vectors, texts[:4], 2, 5, rng)
		require.NoError(t, err)
		require.Len(t, themes, 1)
		assert.Equal(t, 3, themes[0].Size())
	})

	t.Run("max themes zero yields nothing", func(t *testing.T) {
		themes, err := theme.IdentifyRecurringThemes(twoGroups(), texts, 2, 0, rng)
		require.NoError(t, err)
		assert.Empty(t, themes)
	})

	t.Run("too little material yields nothing", func(t *testing.T) {
		vectors := twoGroups()[:1]
		themes, err := theme.IdentifyRecurringThemes(vectors, texts[:1], 2, 5, rng)
		require.NoError(t, err)
		assert.Empty(t, themes)
	})

	t.Run("length mismatch is an error", func(t *testing.T) {
		_, err := theme.IdentifyRecurringThemes(twoGroups(), texts[:2], 2, 5, rng)
		assert.Error(t, err)
	})

	t.Run("empty input is an error", func(t *testing.T) {
		_, err := theme.IdentifyRecurringThemes(nil, nil, 2, 5, rng)
		assert.ErrorIs(t, err, memory.ErrEmptyInput)
	})
}

func TestInsightsAndSummary(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	texts := []string{
		"Worked on the garden.",
		"More garden work.",
		"Garden again.",
		"Dentist appointment.",
		"Dentist follow-up.",
		"Errand downtown.",
	}
	themes, err := theme.IdentifyRecurringThemes(twoGroups(), texts, 2, 5, rng)
	require.NoError(t, err)
	require.NotEmpty(t, themes)

	insights := theme.Insights(themes)
	require.Len(t, insights, len(themes))
	assert.Contains(t, insights[0], "has come up 3 times")

	summary := theme.Summary(themes)
	assert.Contains(t, summary, "Found 2 recurring themes")

	assert.Equal(t, "No recurring themes found yet.", theme.Summary(nil))
}
