// Package theme mines recurring themes from stored journal embeddings by
// clustering them with cosine-similarity k-means.
package theme

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/daybook-dev/daybook/domain/memory"
)

// DefaultMaxIterations bounds a k-means run when the caller passes no
// explicit limit.
const DefaultMaxIterations = 20

// Cluster is one group of similar vectors. Members index into the input
// slice handed to KMeans.
type Cluster struct {
	members  []int
	centroid []float64
	cohesion float64
}

// Members returns the input indexes assigned to this cluster.
func (c Cluster) Members() []int {
	result := make([]int, len(c.members))
	copy(result, c.members)
	return result
}

// Centroid returns the cluster's unit-length centroid.
func (c Cluster) Centroid() []float64 { return c.centroid }

// Size returns the member count.
func (c Cluster) Size() int { return len(c.members) }

// Cohesion returns the mean pairwise similarity among members. A singleton
// cluster has cohesion 1.0.
func (c Cluster) Cohesion() float64 { return c.cohesion }

// KMeans groups unit vectors into at most k clusters by cosine similarity.
// Centroids are seeded from k distinct members drawn from rng, assignment
// picks the most similar centroid, and iteration stops when no vector moves
// or maxIterations is reached. Empty clusters keep their previous centroid
// for the next round. Only non-empty clusters are returned.
func KMeans(vectors [][]float64, k, maxIterations int, rng *rand.Rand) ([]Cluster, error) {
	n := len(vectors)
	if n == 0 {
		return nil, fmt.Errorf("cluster: %w", memory.ErrEmptyInput)
	}
	if k < 1 {
		return nil, fmt.Errorf("cluster: k must be positive, got %d", k)
	}
	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("cluster: vector %d: %w", i, memory.ErrDimensionMismatch)
		}
	}
	if k > n {
		k = n
	}
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}

	centroids := seedCentroids(vectors, k, rng)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		moved := false
		for i, v := range vectors {
			best := nearestCentroid(v, centroids)
			if best != assignments[i] {
				assignments[i] = best
				moved = true
			}
		}
		if !moved {
			break
		}
		recomputeCentroids(centroids, vectors, assignments)
	}

	return collectClusters(vectors, centroids, assignments)
}

// seedCentroids copies k distinct vectors chosen through rng as the initial
// centroids.
func seedCentroids(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	order := rng.Perm(len(vectors))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[order[i]]...)
	}
	return centroids
}

// nearestCentroid returns the index of the most similar centroid, first
// winner on ties.
func nearestCentroid(v []float64, centroids [][]float64) int {
	best := 0
	bestScore := dot(v, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if score := dot(v, centroids[i]); score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// recomputeCentroids replaces each centroid with the normalized component
// mean of its members. A cluster that lost all members keeps its stale
// centroid so it can attract vectors again next iteration.
func recomputeCentroids(centroids, vectors [][]float64, assignments []int) {
	dims := len(vectors[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, dims)
	}
	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for d, component := range v {
			sums[c][d] += component
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for d := range sums[c] {
			sums[c][d] /= float64(counts[c])
		}
		centroids[c] = normalize(sums[c])
	}
}

// collectClusters builds the non-empty Cluster values in centroid order.
func collectClusters(vectors, centroids [][]float64, assignments []int) ([]Cluster, error) {
	grouped := make([][]int, len(centroids))
	for i, c := range assignments {
		grouped[c] = append(grouped[c], i)
	}
	clusters := make([]Cluster, 0, len(centroids))
	for c, members := range grouped {
		if len(members) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{
			members:  members,
			centroid: centroids[c],
			cohesion: meanPairwiseSimilarity(vectors, members),
		})
	}
	return clusters, nil
}

// meanPairwiseSimilarity averages the similarity over all member pairs; a
// single member yields 1.0.
func meanPairwiseSimilarity(vectors [][]float64, members []int) float64 {
	if len(members) < 2 {
		return 1.0
	}
	var sum float64
	var pairs int
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += dot(vectors[members[i]], vectors[members[j]])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// dot is cosine similarity for the unit vectors this package operates on.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize scales v to unit length in place and returns it. A zero vector
// is returned unchanged.
func normalize(v []float64) []float64 {
	var sumSquares float64
	for _, c := range v {
		sumSquares += c * c
	}
	if sumSquares == 0 {
		return v
	}
	norm := math.Sqrt(sumSquares)
	for i := range v {
		v[i] /= norm
	}
	return v
}
