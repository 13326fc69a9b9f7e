package theme

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/daybook-dev/daybook/domain/memory"
	"github.com/daybook-dev/daybook/domain/search"
)

// Theme is one recurring topic surfaced from the journal: a representative
// entry, a short key phrase derived from it, and how often it came up.
type Theme struct {
	representative string
	keyPhrase      string
	size           int
	cohesion       float64
}

// Representative returns the full text of the entry closest to the theme's
// center.
func (t Theme) Representative() string { return t.representative }

// KeyPhrase returns the short label derived from the representative.
func (t Theme) KeyPhrase() string { return t.keyPhrase }

// Size returns how many entries belong to the theme.
func (t Theme) Size() int { return t.size }

// Cohesion returns the theme's mean pairwise similarity.
func (t Theme) Cohesion() float64 { return t.cohesion }

// IdentifyRecurringThemes clusters the given entry vectors and keeps the
// clusters that recur at least minFrequency times. vectors[i] embeds
// texts[i]. The cluster count is min(maxThemes, n/minFrequency); when that
// is zero there is not enough material and no themes are returned. Themes
// come back sorted by size, largest first, at most maxThemes of them.
func IdentifyRecurringThemes(vectors [][]float64, texts []string, minFrequency, maxThemes int, rng *rand.Rand) ([]Theme, error) {
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("identify themes: %d vectors for %d texts", len(vectors), len(texts))
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("identify themes: %w", memory.ErrEmptyInput)
	}
	if minFrequency < 1 {
		minFrequency = 1
	}
	if maxThemes < 1 {
		return nil, nil
	}

	k := len(vectors) / minFrequency
	if k > maxThemes {
		k = maxThemes
	}
	if k < 1 {
		return nil, nil
	}

	clusters, err := KMeans(vectors, k, DefaultMaxIterations, rng)
	if err != nil {
		return nil, err
	}

	themes := make([]Theme, 0, len(clusters))
	for _, cluster := range clusters {
		if cluster.Size() < minFrequency {
			continue
		}
		rep := representative(vectors, cluster.Members())
		themes = append(themes, Theme{
			representative: texts[rep],
			keyPhrase:      search.Excerpt(texts[rep], search.KeyPhraseLength),
			size:           cluster.Size(),
			cohesion:       cluster.Cohesion(),
		})
	}

	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].size > themes[j].size
	})
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	return themes, nil
}

// representative picks the member with the highest mean similarity to its
// fellow members; for a singleton that is the member itself.
func representative(vectors [][]float64, members []int) int {
	if len(members) == 1 {
		return members[0]
	}
	best := members[0]
	bestScore := -2.0
	for _, candidate := range members {
		var sum float64
		for _, other := range members {
			if other == candidate {
				continue
			}
			sum += dot(vectors[candidate], vectors[other])
		}
		score := sum / float64(len(members)-1)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}
