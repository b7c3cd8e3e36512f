// Package pdftext extracts page count and plain text from downloaded
// PDF documents.
package pdftext

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
)

// Extractor reads PDFs from disk.
type Extractor struct{}

var _ ports.ContentExtractor = (*Extractor)(nil)

// NewExtractor returns a stateless extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract opens the document and concatenates the text of every page.
// Pages that fail to extract are skipped rather than failing the whole
// document.
func (e *Extractor) Extract(_ context.Context, path string) (domain.ExtractedDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	return domain.ExtractedDocument{PageCount: total, Text: b.String()}, nil
}
