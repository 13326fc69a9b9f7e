package memory

import "errors"

// Sentinel errors for the memory index. Callers discriminate with
// errors.Is; wrapping layers add context with fmt.Errorf and %w.
var (
	// ErrDimensionMismatch indicates two vectors of different lengths were
	// compared, or a vector of the wrong width reached the store.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyInput indicates blank text or an empty collection was handed
	// to an operation that needs content.
	ErrEmptyInput = errors.New("empty input")

	// ErrInitialization indicates the embedding generator failed to become
	// ready.
	ErrInitialization = errors.New("embedding generator initialization failed")

	// ErrEntityNotFound indicates the referenced journal entry does not
	// exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidVector indicates a vector violated the shape invariants:
	// a component out of [-1, 1] or a norm outside unit tolerance.
	// Width violations report ErrDimensionMismatch instead.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrStoreUnavailable indicates the backing store rejected or failed
	// the operation.
	ErrStoreUnavailable = errors.New("embedding store unavailable")
)
