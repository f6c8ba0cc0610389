package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
)

// QCConfig represents the configuration for the quality-control checker.
type QCConfig struct {
	FinalJSONDir string
	SourcePDFDir string
	ReviewDir    string
}

// QCChecker inspects final records for extraction-quality flags and moves
// the source PDFs of flagged documents into the manual-review queue.
type QCChecker struct {
	config QCConfig
}

func NewQCChecker(config QCConfig) *QCChecker {
	return &QCChecker{config: config}
}

// CheckAndFlag scans every final JSON file. Per-file errors are reported via
// the status callback and skipped; the scan continues. Returns the total
// number of records seen and how many were flagged.
func (q *QCChecker) CheckAndFlag(status func(string)) (total, flagged int, err error) {
	if err := os.MkdirAll(q.config.ReviewDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("failed to create review directory: %w", err)
	}

	if _, err := os.Stat(q.config.FinalJSONDir); os.IsNotExist(err) {
		return 0, 0, fmt.Errorf("final JSON directory not found: %s", q.config.FinalJSONDir)
	}

	paths, err := filepath.Glob(filepath.Join(q.config.FinalJSONDir, "*.json"))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list %s: %w", q.config.FinalJSONDir, err)
	}

	for _, path := range paths {
		total++

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			report(status, "Error reading %s: %v", filepath.Base(path), readErr)
			continue
		}

		var record models.DocumentRecord
		if jsonErr := json.Unmarshal(data, &record); jsonErr != nil {
			report(status, "Error reading %s: %v", filepath.Base(path), jsonErr)
			continue
		}

		if !isFlagged(record) {
			continue
		}
		flagged++

		report(status, "FLAGGED: %s - %s", filepath.Base(path), flagReason(record))

		docID := strings.TrimSuffix(filepath.Base(path), ".json")
		pdfPath := filepath.Join(q.config.SourcePDFDir, docID+".pdf")
		destPath := filepath.Join(q.config.ReviewDir, docID+".pdf")

		if _, statErr := os.Stat(pdfPath); statErr != nil {
			report(status, "Warning: could not find PDF for %s", docID)
			continue
		}
		if moveErr := os.Rename(pdfPath, destPath); moveErr != nil {
			report(status, "Error moving %s.pdf to review: %v", docID, moveErr)
			continue
		}
		report(status, "Moved %s.pdf to review folder", docID)
	}

	return total, flagged, nil
}

// CheckSingle moves the given PDF to the review queue when its record is
// flagged. Returns whether the record was flagged.
func (q *QCChecker) CheckSingle(record models.DocumentRecord, pdfPath string, status func(string)) (bool, error) {
	if !isFlagged(record) {
		return false, nil
	}

	if err := os.MkdirAll(q.config.ReviewDir, 0o755); err != nil {
		return true, fmt.Errorf("failed to create review directory: %w", err)
	}

	report(status, "QC Flag: %s", flagReason(record))

	destPath := filepath.Join(q.config.ReviewDir, filepath.Base(pdfPath))
	if _, err := os.Stat(pdfPath); err == nil {
		if err := os.Rename(pdfPath, destPath); err != nil {
			return true, fmt.Errorf("failed to move %s to review: %w", filepath.Base(pdfPath), err)
		}
	}

	return true, nil
}

func isFlagged(record models.DocumentRecord) bool {
	flag, _ := record["_qc_flag"].(bool)
	return flag
}

func flagReason(record models.DocumentRecord) string {
	if reason, ok := record["_qc_reason"].(string); ok && reason != "" {
		return reason
	}
	return "No reason specified"
}

func report(status func(string), format string, args ...interface{}) {
	if status != nil {
		status(fmt.Sprintf(format, args...))
	}
}
