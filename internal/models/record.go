package models

import (
	"encoding/json"
	"fmt"
)

// DocumentRecord is the structured output of the extraction pipeline for one
// utility document. The core treats it as an opaque payload; only the
// documentId field is ever read directly.
type DocumentRecord map[string]interface{}

// DocumentID returns the record's documentId field, or "" when absent.
func (r DocumentRecord) DocumentID() string {
	id, _ := r["documentId"].(string)
	return id
}

// CanonicalText serializes the record with sorted keys and two-space
// indentation. Serializing the same record twice yields byte-identical
// output, so re-ingesting a record produces the same index text.
func (r DocumentRecord) CanonicalText() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize record %q: %w", r.DocumentID(), err)
	}
	return string(data), nil
}

// ContentUnit is one indexable unit of content: the canonical text of a
// record plus a stable source label. Records are never split into chunks,
// to keep cross-field context together for retrieval.
type ContentUnit struct {
	Text   string
	Source string
}

// IndexEntry is one stored row in a collection.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]interface{}
}

// SearchResult is a retrieved entry, nearest first.
type SearchResult struct {
	Text     string
	Metadata map[string]interface{}
}
