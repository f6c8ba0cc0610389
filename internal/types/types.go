package types

import (
	"context"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
)

// Core interfaces

// ContentSource produces the units to be indexed. Two implementations exist:
// one backed by the final-JSON directory and one backed by an in-memory list
// of freshly processed records.
type ContentSource interface {
	Units() ([]models.ContentUnit, error)
}

// Embedder converts texts into fixed-dimension vectors, one per input, in
// input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is a persistent store of collections of (id, vector, text, metadata)
// entries supporting append and nearest-neighbor query.
type Index interface {
	OpenOrCreate(ctx context.Context, name string, dim int) error
	Count(ctx context.Context, name string) (int, error)
	Append(ctx context.Context, name string, entries []models.IndexEntry) error
	Query(ctx context.Context, name string, vector []float32, k int) ([]models.SearchResult, error)
	Close()
}

// Generator produces a grounded answer from a query and retrieved contexts.
type Generator interface {
	Answer(ctx context.Context, query string, contexts []string) (string, error)
}
