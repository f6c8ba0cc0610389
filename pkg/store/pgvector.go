package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
)

const pgUniqueViolation = "23505"

var collectionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type VectorStoreConfig struct {
	ConnString string
}

// VectorStore is a persistent vector index on PostgreSQL with pgvector. Each
// collection is its own table, registered in a catalog table that records
// the embedding dimension fixed at creation time.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	// Catalog of collections and their fixed embedding dimensions
	_, err = vs.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			vector_dim INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create collections catalog: %w", err)
	}

	return nil
}

func tableName(collection string) string {
	return "kb_" + collection
}

// dim returns the registered dimension for a collection, or
// ErrCollectionNotFound when it was never created.
func (vs *VectorStore) dim(ctx context.Context, name string) (int, error) {
	var dim int
	err := vs.pool.QueryRow(ctx,
		"SELECT vector_dim FROM collections WHERE name = $1", name).Scan(&dim)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &IndexError{Collection: name, Err: ErrCollectionNotFound}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up collection %s: %w", name, err)
	}
	return dim, nil
}

// OpenOrCreate registers the collection and creates its table on first use.
// Reopening an existing collection with a different dimension fails.
func (vs *VectorStore) OpenOrCreate(ctx context.Context, name string, dim int) error {
	if !collectionNameRe.MatchString(name) {
		return &IndexError{Collection: name, Err: fmt.Errorf("invalid collection name")}
	}

	existing, err := vs.dim(ctx, name)
	if err == nil {
		if existing != dim {
			return &IndexError{
				Collection: name,
				Err: fmt.Errorf("%w: collection has %d, requested %d",
					ErrDimensionMismatch, existing, dim),
			}
		}
		return nil
	}
	var ie *IndexError
	if !errors.As(err, &ie) {
		return err
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB
		)`, tableName(name), dim)

	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table for collection %s: %w", name, err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		tableName(name), tableName(name))

	if _, err := vs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index for collection %s: %w", name, err)
	}

	_, err = vs.pool.Exec(ctx,
		"INSERT INTO collections (name, vector_dim) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING",
		name, dim)
	if err != nil {
		return fmt.Errorf("failed to register collection %s: %w", name, err)
	}

	return nil
}

// Count returns the number of entries in the collection.
func (vs *VectorStore) Count(ctx context.Context, name string) (int, error) {
	if _, err := vs.dim(ctx, name); err != nil {
		return 0, err
	}

	var count int
	err := vs.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s", tableName(name))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", name, err)
	}
	return count, nil
}

// Append durably writes the entries in one transaction. Ids must already be
// assigned; a duplicate id fails the whole call.
func (vs *VectorStore) Append(ctx context.Context, name string, entries []models.IndexEntry) error {
	dim, err := vs.dim(ctx, name)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if len(entry.Vector) != dim {
			return &IndexError{
				Collection: name,
				Err: fmt.Errorf("%w: entry %s has %d dimensions, collection has %d",
					ErrDimensionMismatch, entry.ID, len(entry.Vector), dim),
			}
		}
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		tableName(name))

	for _, entry := range entries {
		source, _ := entry.Metadata["source"].(string)
		_, err := tx.Exec(ctx, stmt,
			entry.ID,
			source,
			entry.Text,
			pgvector.NewVector(entry.Vector),
			entry.Metadata,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return &IndexError{
					Collection: name,
					Err:        fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID),
				}
			}
			return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Query returns up to k entries nearest the query vector by cosine distance,
// nearest first. Querying a never-created collection is an error.
func (vs *VectorStore) Query(ctx context.Context, name string, vector []float32, k int) ([]models.SearchResult, error) {
	dim, err := vs.dim(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, &IndexError{
			Collection: name,
			Err: fmt.Errorf("%w: query has %d dimensions, collection has %d",
				ErrDimensionMismatch, len(vector), dim),
		}
	}

	query := fmt.Sprintf(`
		SELECT content, metadata
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		tableName(name))

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", name, err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var result models.SearchResult
		if err := rows.Scan(&result.Text, &result.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query results: %w", err)
	}

	return results, nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}
