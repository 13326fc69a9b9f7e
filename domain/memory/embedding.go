// Package memory holds the embedding records, queue references, and store
// contracts that back the journal's semantic index.
package memory

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-dev/daybook/domain/journal"
)

// Dimensions is the width of every stored vector.
const Dimensions = 384

// normTolerance is the allowed deviation from unit length. Generators
// normalize their output, but float accumulation leaves a little slack.
const normTolerance = 0.01

// Embedding is one stored vector tied to a journal entry. At steady state
// there is at most one embedding per (entity type, entity id) pair.
type Embedding struct {
	id           string
	ref          Ref
	vector       []float64
	modelVersion string
	createdAt    time.Time
}

// NewEmbedding creates an Embedding with a generated id and the current
// timestamp. The vector is validated before any store write, not here.
func NewEmbedding(ref Ref, vector []float64, modelVersion string) Embedding {
	v := make([]float64, len(vector))
	copy(v, vector)
	return Embedding{
		id:           uuid.NewString(),
		ref:          ref,
		vector:       v,
		modelVersion: modelVersion,
		createdAt:    time.Now().UTC(),
	}
}

// RestoreEmbedding reconstructs an Embedding from persisted state.
func RestoreEmbedding(id string, ref Ref, vector []float64, modelVersion string, createdAt time.Time) Embedding {
	return Embedding{
		id:           id,
		ref:          ref,
		vector:       vector,
		modelVersion: modelVersion,
		createdAt:    createdAt,
	}
}

// ID returns the embedding id.
func (e Embedding) ID() string { return e.id }

// Ref returns the (entity type, entity id) pair this embedding belongs to.
func (e Embedding) Ref() Ref { return e.ref }

// EntityType returns the referenced entry's type.
func (e Embedding) EntityType() journal.EntityType { return e.ref.EntityType() }

// EntityID returns the referenced entry's id.
func (e Embedding) EntityID() string { return e.ref.EntityID() }

// Vector returns the stored vector. The slice is shared; callers must not
// mutate it.
func (e Embedding) Vector() []float64 { return e.vector }

// ModelVersion returns the "<model-name>@v<N>" tag the vector was produced
// with.
func (e Embedding) ModelVersion() string { return e.modelVersion }

// CreatedAt returns the creation timestamp.
func (e Embedding) CreatedAt() time.Time { return e.createdAt }

// ValidateVector checks the shape invariants every stored vector must
// satisfy: exactly Dimensions components, each within [-1, 1], and unit
// Euclidean norm within tolerance. Stores call this before writing so
// malformed vectors are rejected synchronously.
func ValidateVector(vector []float64) error {
	if len(vector) != Dimensions {
		return fmt.Errorf("%w: got %d components, want %d", ErrDimensionMismatch, len(vector), Dimensions)
	}
	var sumSquares float64
	for i, c := range vector {
		if math.IsNaN(c) || c < -1 || c > 1 {
			return fmt.Errorf("%w: component %d out of range: %v", ErrInvalidVector, i, c)
		}
		sumSquares += c * c
	}
	norm := math.Sqrt(sumSquares)
	if math.Abs(norm-1) > normTolerance {
		return fmt.Errorf("%w: vector norm %.4f outside unit tolerance", ErrInvalidVector, norm)
	}
	return nil
}

// FormatModelVersion builds the "<model-name>@v<N>" version tag.
func FormatModelVersion(model string, revision int) string {
	return fmt.Sprintf("%s@v%d", model, revision)
}
