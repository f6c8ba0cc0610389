package store

import (
	"errors"
	"fmt"
)

var (
	// ErrCollectionNotFound is returned when querying a collection that was
	// never created. This is a hard error, not an empty result.
	ErrCollectionNotFound = errors.New("collection does not exist")

	// ErrDuplicateID is returned when an appended entry reuses an id.
	ErrDuplicateID = errors.New("duplicate entry id")

	// ErrDimensionMismatch is returned when a collection is opened or written
	// with a vector dimensionality different from the one it was created with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// IndexError wraps a vector-index inconsistency. Fatal to the current call.
type IndexError struct {
	Collection string
	Err        error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("vector index: collection %q: %v", e.Collection, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }
