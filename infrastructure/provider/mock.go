package provider

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/daybook-dev/daybook/domain/memory"
)

const mockModel = "mock-embedder"

// MockGenerator produces deterministic unit vectors for tests: the same
// text always maps to the same vector, different texts almost surely to
// different directions. No model files, no network.
type MockGenerator struct {
	ready    atomic.Bool
	failInit bool
}

// NewMockGenerator creates a MockGenerator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// NewFailingMockGenerator creates a MockGenerator whose Initialize always
// fails, for exercising deferred-drain paths.
func NewFailingMockGenerator() *MockGenerator {
	return &MockGenerator{failInit: true}
}

// Initialize marks the generator ready. Idempotent.
func (g *MockGenerator) Initialize(_ context.Context) error {
	if g.failInit {
		return memory.ErrInitialization
	}
	g.ready.Store(true)
	return nil
}

// Status reports readiness.
func (g *MockGenerator) Status() Status {
	return Status{
		Ready:        g.ready.Load(),
		Device:       "mock",
		Model:        mockModel,
		ModelVersion: memory.FormatModelVersion(mockModel, 1),
	}
}

// Embed produces one deterministic embedding.
func (g *MockGenerator) Embed(ctx context.Context, text string) (Result, error) {
	results, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// EmbedBatch produces one deterministic embedding per text.
func (g *MockGenerator) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}
	if err := g.Initialize(ctx); err != nil {
		return nil, err
	}

	version := memory.FormatModelVersion(mockModel, 1)
	results := make([]Result, len(texts))
	for i, text := range texts {
		results[i] = Result{
			Vector:         deterministicVector(text),
			ModelVersion:   version,
			Timestamp:      time.Now().UTC(),
			ProcessingTime: time.Microsecond,
		}
	}
	return results, nil
}

// Close is a no-op.
func (g *MockGenerator) Close() error {
	return nil
}

// deterministicVector derives a unit vector from the FNV hash of the text.
func deterministicVector(text string) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vector := make([]float64, memory.Dimensions)
	var sumSquares float64
	for i := range vector {
		vector[i] = rng.NormFloat64()
		sumSquares += vector[i] * vector[i]
	}
	norm := math.Sqrt(sumSquares)
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}

var _ Generator = (*MockGenerator)(nil)
