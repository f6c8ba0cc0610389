// Package pipeline holds the upstream document-processing steps that feed
// the knowledge base: the parse-service client, the LLM structurer and the
// quality-control checker. Rotation correction runs outside this system;
// PDFs arriving here are assumed upright.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
)

// Pipeline runs one PDF through parse, structuring and QC.
type Pipeline struct {
	parser     *ParserClient
	structurer *Structurer
	qc         *QCChecker
}

func New(parser *ParserClient, structurer *Structurer, qc *QCChecker) *Pipeline {
	return &Pipeline{
		parser:     parser,
		structurer: structurer,
		qc:         qc,
	}
}

// ProcessPDF converts one PDF into its final structured record. Flagged
// documents are moved to the review queue but their record is still
// returned, so the caller decides whether to index it.
func (p *Pipeline) ProcessPDF(ctx context.Context, pdfPath string, status func(string)) (models.DocumentRecord, error) {
	documentID := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	report(status, "Parsing %s...", filepath.Base(pdfPath))
	genericPath, err := p.parser.Parse(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	report(status, "Structuring data for %s...", filepath.Base(genericPath))
	record, err := p.structurer.Structure(ctx, genericPath, documentID)
	if err != nil {
		return nil, err
	}

	if _, err := p.qc.CheckSingle(record, pdfPath, status); err != nil {
		return nil, err
	}

	return record, nil
}
