// Package search implements exact vector similarity over stored
// embeddings. The index is small enough that brute force beats any
// approximate structure, and exactness keeps results reproducible.
package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/daybook-dev/daybook/domain/memory"
)

// CosineSimilarity computes the cosine of the angle between a and b.
// Vectors of different lengths are an error; a zero vector has no direction
// and scores 0 against everything.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", memory.ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Match pairs an embedding with its similarity to a query.
type Match struct {
	embedding memory.Embedding
	score     float64
}

// Embedding returns the matched record.
func (m Match) Embedding() memory.Embedding { return m.embedding }

// Ref returns the matched record's entity reference.
func (m Match) Ref() memory.Ref { return m.embedding.Ref() }

// Score returns the cosine similarity to the query.
func (m Match) Score() float64 { return m.score }

// TopK scores every candidate against the query and returns the k best,
// highest first. The sort is stable so candidates with equal scores keep
// their input order. Fewer than k candidates yields them all.
func TopK(query []float64, candidates []memory.Embedding, k int) ([]Match, error) {
	if k <= 0 || len(candidates) == 0 {
		return nil, nil
	}
	matches := make([]Match, 0, len(candidates))
	for i, candidate := range candidates {
		score, err := CosineSimilarity(query, candidate.Vector())
		if err != nil {
			return nil, fmt.Errorf("score candidate %d: %w", i, err)
		}
		matches = append(matches, Match{embedding: candidate, score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
