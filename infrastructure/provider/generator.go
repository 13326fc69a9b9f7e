// Package provider implements the embedding generators the indexer can run
// on: a local ONNX model, the OpenAI API, and a deterministic mock for
// tests.
package provider

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/daybook-dev/daybook/domain/memory"
)

// Status describes a generator's readiness.
type Status struct {
	Ready        bool
	Device       string
	Model        string
	ModelVersion string
}

// Result is one produced embedding.
type Result struct {
	Vector         []float64
	ModelVersion   string
	Timestamp      time.Time
	ProcessingTime time.Duration
}

// Generator turns text into unit vectors. Initialize is idempotent and may
// be called lazily before the first use; a generator that is not ready yet
// reports it through Status so callers can defer work instead of failing.
type Generator interface {
	Initialize(ctx context.Context) error
	Status() Status
	Embed(ctx context.Context, text string) (Result, error)
	EmbedBatch(ctx context.Context, texts []string) ([]Result, error)
	Close() error
}

// ProviderError carries the operation and upstream detail of a failed
// provider call.
type ProviderError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, err error) *ProviderError {
	return &ProviderError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// fitDimensions normalizes a raw model vector to the stored shape: exactly
// memory.Dimensions components at unit length. Longer vectors are
// truncated, shorter ones zero-padded, then rescaled.
func fitDimensions(raw []float64) []float64 {
	vector := make([]float64, memory.Dimensions)
	copy(vector, raw)

	var sumSquares float64
	for _, c := range vector {
		sumSquares += c * c
	}
	if sumSquares == 0 {
		return vector
	}
	norm := math.Sqrt(sumSquares)
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}

// validateTexts rejects requests that carry nothing to embed.
func validateTexts(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("embed batch: %w", memory.ErrEmptyInput)
	}
	for i, text := range texts {
		if isBlank(text) {
			return fmt.Errorf("embed batch item %d: %w", i, memory.ErrEmptyInput)
		}
	}
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
