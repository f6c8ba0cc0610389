// Package kb orchestrates the knowledge base: ingestion of extracted
// utility-document records into the vector index and top-k retrieval of
// relevant texts for a query.
package kb

import (
	"context"
	"fmt"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/types"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/loader"
)

// ManagerConfig represents the configuration for a knowledge base manager.
type ManagerConfig struct {
	Collection string
	VectorDim  int
	BatchSize  int
	SearchK    int
	OnProgress func(done, total int)
}

// Manager turns content units into embedded, durably indexed entries and
// query strings into ranked relevant texts.
//
// Ids are derived from the collection's entry count read just before each
// append, so ingestion is single-writer: callers must not run two ingest
// calls concurrently against the same collection. Entries from completed
// batches stay persisted when a later batch fails; ingestion is not
// transactional across batches.
type Manager struct {
	config   ManagerConfig
	embedder types.Embedder
	index    types.Index
	source   types.ContentSource
}

// NewManager wires a manager from its collaborators. source is the canonical
// final-output content source used by full rebuilds.
func NewManager(config ManagerConfig, embedder types.Embedder, index types.Index, source types.ContentSource) *Manager {
	if config.Collection == "" {
		config.Collection = "utility_docs"
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.SearchK <= 0 {
		config.SearchK = 15
	}

	return &Manager{
		config:   config,
		embedder: embedder,
		index:    index,
		source:   source,
	}
}

// IngestAll populates the collection from the given units, or from the
// canonical content source when units is nil. An empty unit sequence is a
// no-op. Returns the number of entries appended.
func (m *Manager) IngestAll(ctx context.Context, units []models.ContentUnit) (int, error) {
	if units == nil {
		var err error
		units, err = m.source.Units()
		if err != nil {
			return 0, fmt.Errorf("failed to load documents: %w", err)
		}
	}
	if len(units) == 0 {
		return 0, nil
	}

	if err := m.index.OpenOrCreate(ctx, m.config.Collection, m.config.VectorDim); err != nil {
		return 0, err
	}

	total := 0
	for i := 0; i < len(units); i += m.config.BatchSize {
		end := i + m.config.BatchSize
		if end > len(units) {
			end = len(units)
		}
		batch := units[i:end]

		if err := m.ingestBatch(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)

		if m.config.OnProgress != nil {
			m.config.OnProgress(total, len(units))
		}
	}

	return total, nil
}

// IngestRecords adds freshly produced records to the collection without
// re-reading them from disk. Empty input is a no-op. The whole set is
// embedded in one call; the embedder chunks internally.
func (m *Manager) IngestRecords(ctx context.Context, records []models.DocumentRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	units, err := loader.NewRecordSource(records).Units()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize records: %w", err)
	}

	if err := m.index.OpenOrCreate(ctx, m.config.Collection, m.config.VectorDim); err != nil {
		return 0, err
	}

	if err := m.ingestBatch(ctx, units); err != nil {
		return 0, err
	}
	return len(units), nil
}

// ingestBatch embeds one batch of units, assigns ids from the collection's
// current count, and appends the entries.
func (m *Manager) ingestBatch(ctx context.Context, units []models.ContentUnit) error {
	texts := make([]string, len(units))
	for i, unit := range units {
		texts[i] = unit.Text
	}

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	count, err := m.index.Count(ctx, m.config.Collection)
	if err != nil {
		return err
	}

	entries := make([]models.IndexEntry, len(units))
	for i, unit := range units {
		entries[i] = models.IndexEntry{
			ID:     fmt.Sprintf("doc_%d", count+i),
			Vector: vectors[i],
			Text:   unit.Text,
			Metadata: map[string]interface{}{
				"source": unit.Source,
			},
		}
	}

	return m.index.Append(ctx, m.config.Collection, entries)
}

// Retrieve embeds the query and returns the texts of the k nearest entries,
// nearest first. k <= 0 uses the configured default. Querying a collection
// that was never ingested into is an error.
func (m *Manager) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = m.config.SearchK
	}

	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	results, err := m.index.Query(ctx, m.config.Collection, vectors[0], k)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(results))
	for i, result := range results {
		texts[i] = result.Text
	}
	return texts, nil
}
