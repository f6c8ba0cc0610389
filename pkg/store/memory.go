package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
)

// MemoryStore is an in-process vector index using brute-force cosine
// similarity. It implements the same contract as the PostgreSQL store and
// backs the test suite; it is also usable when no database is available.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dim     int
	entries []models.IndexEntry
	ids     map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) OpenOrCreate(_ context.Context, name string, dim int) error {
	if dim <= 0 {
		return &IndexError{Collection: name, Err: fmt.Errorf("invalid dimension %d", dim)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.dim != dim {
			return &IndexError{
				Collection: name,
				Err: fmt.Errorf("%w: collection has %d, requested %d",
					ErrDimensionMismatch, c.dim, dim),
			}
		}
		return nil
	}

	s.collections[name] = &memCollection{
		dim: dim,
		ids: make(map[string]struct{}),
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, &IndexError{Collection: name, Err: ErrCollectionNotFound}
	}
	return len(c.entries), nil
}

func (s *MemoryStore) Append(_ context.Context, name string, entries []models.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return &IndexError{Collection: name, Err: ErrCollectionNotFound}
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if len(entry.Vector) != c.dim {
			return &IndexError{
				Collection: name,
				Err: fmt.Errorf("%w: entry %s has %d dimensions, collection has %d",
					ErrDimensionMismatch, entry.ID, len(entry.Vector), c.dim),
			}
		}
		if _, exists := c.ids[entry.ID]; exists {
			return &IndexError{
				Collection: name,
				Err:        fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID),
			}
		}
		// Ids must also be unique within the batch itself
		if _, exists := seen[entry.ID]; exists {
			return &IndexError{
				Collection: name,
				Err:        fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID),
			}
		}
		seen[entry.ID] = struct{}{}
	}

	for _, entry := range entries {
		c.ids[entry.ID] = struct{}{}
		c.entries = append(c.entries, entry)
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, name string, vector []float32, k int) ([]models.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, &IndexError{Collection: name, Err: ErrCollectionNotFound}
	}
	if len(vector) != c.dim {
		return nil, &IndexError{
			Collection: name,
			Err: fmt.Errorf("%w: query has %d dimensions, collection has %d",
				ErrDimensionMismatch, len(vector), c.dim),
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(c.entries))
	for i, entry := range c.entries {
		scores[i] = scored{idx: i, score: cosineSimilarity(entry.Vector, vector)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]models.SearchResult, 0, k)
	for i := 0; i < k; i++ {
		entry := c.entries[scores[i].idx]
		results = append(results, models.SearchResult{
			Text:     entry.Text,
			Metadata: entry.Metadata,
		})
	}
	return results, nil
}

func (s *MemoryStore) Close() {}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
