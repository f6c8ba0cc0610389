package loader

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
)

// DirectorySource loads content units from a directory of final JSON files,
// one unit per file. Files that fail to parse are skipped with a warning;
// the rest of the batch proceeds.
type DirectorySource struct {
	Dir string
}

func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{Dir: dir}
}

func (s *DirectorySource) Units() ([]models.ContentUnit, error) {
	if _, err := os.Stat(s.Dir); os.IsNotExist(err) {
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(s.Dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Dir, err)
	}

	var units []models.ContentUnit
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: could not read %s, skipping: %v", filepath.Base(path), err)
			continue
		}

		var record models.DocumentRecord
		if err := json.Unmarshal(data, &record); err != nil {
			log.Printf("Warning: could not decode JSON from %s, skipping", filepath.Base(path))
			continue
		}

		text, err := record.CanonicalText()
		if err != nil {
			log.Printf("Warning: could not serialize %s, skipping: %v", filepath.Base(path), err)
			continue
		}

		units = append(units, models.ContentUnit{
			Text:   text,
			Source: filepath.Base(path),
		})
	}

	return units, nil
}

// RecordSource wraps freshly produced records, using each record's own
// documentId as the source label. Used by incremental ingestion so the
// pipeline output is never re-read from disk.
type RecordSource struct {
	Records []models.DocumentRecord
}

func NewRecordSource(records []models.DocumentRecord) *RecordSource {
	return &RecordSource{Records: records}
}

func (s *RecordSource) Units() ([]models.ContentUnit, error) {
	var units []models.ContentUnit
	for _, record := range s.Records {
		text, err := record.CanonicalText()
		if err != nil {
			return nil, err
		}
		units = append(units, models.ContentUnit{
			Text:   text,
			Source: fmt.Sprintf("%s.json", record.DocumentID()),
		})
	}
	return units, nil
}
