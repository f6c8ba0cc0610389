package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
)

func entry(id string, vector []float32, text string) models.IndexEntry {
	return models.IndexEntry{
		ID:     id,
		Vector: vector,
		Text:   text,
		Metadata: map[string]interface{}{
			"source": id + ".json",
		},
	}
}

func TestMemoryStoreOpenOrCreateIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.OpenOrCreate(ctx, "docs", 3))
	require.NoError(t, s.OpenOrCreate(ctx, "docs", 3))

	count, err := s.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStoreDimensionMismatchOnOpen(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.OpenOrCreate(ctx, "docs", 3))
	err := s.OpenOrCreate(ctx, "docs", 4)
	require.Error(t, err)

	var idxErr *IndexError
	require.True(t, errors.As(err, &idxErr))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryStoreQueryUnknownCollection(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Query(context.Background(), "never_created", []float32{1, 0}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = s.Count(context.Background(), "never_created")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestMemoryStoreAppendDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.OpenOrCreate(ctx, "docs", 2))

	require.NoError(t, s.Append(ctx, "docs", []models.IndexEntry{
		entry("doc_0", []float32{1, 0}, "first"),
	}))

	err := s.Append(ctx, "docs", []models.IndexEntry{
		entry("doc_1", []float32{0, 1}, "second"),
		entry("doc_0", []float32{1, 1}, "dup"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)

	// A rejected batch appends nothing
	count, err := s.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStoreAppendDuplicateIDWithinBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.OpenOrCreate(ctx, "docs", 2))

	err := s.Append(ctx, "docs", []models.IndexEntry{
		entry("doc_0", []float32{1, 0}, "first"),
		entry("doc_0", []float32{0, 1}, "dup in same batch"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)

	count, err := s.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStoreAppendDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.OpenOrCreate(ctx, "docs", 2))

	err := s.Append(ctx, "docs", []models.IndexEntry{
		entry("doc_0", []float32{1, 0, 0}, "wrong dim"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryStoreQueryRanking(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.OpenOrCreate(ctx, "docs", 2))

	require.NoError(t, s.Append(ctx, "docs", []models.IndexEntry{
		entry("doc_0", []float32{1, 0}, "east"),
		entry("doc_1", []float32{0, 1}, "north"),
		entry("doc_2", []float32{1, 1}, "northeast"),
	}))

	results, err := s.Query(ctx, "docs", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Cosine order: exact match first, 45-degree neighbor second
	assert.Equal(t, "east", results[0].Text)
	assert.Equal(t, "northeast", results[1].Text)
}

func TestMemoryStoreQueryKLargerThanCollection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.OpenOrCreate(ctx, "docs", 2))

	require.NoError(t, s.Append(ctx, "docs", []models.IndexEntry{
		entry("doc_0", []float32{1, 0}, "only"),
	}))

	results, err := s.Query(ctx, "docs", []float32{1, 0}, 15)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMemoryStoreManyCollections(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("col_%d", i)
		require.NoError(t, s.OpenOrCreate(ctx, name, 2))
		require.NoError(t, s.Append(ctx, name, []models.IndexEntry{
			entry("doc_0", []float32{1, 0}, name),
		}))
	}

	results, err := s.Query(ctx, "col_1", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "col_1", results[0].Text)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{2, 0}, []float32{7, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}), 1e-9)
}
