package loaders

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"

	"github.com/ledongthuc/pdf"
)

// PdfLoader implements the Loader interface for PDF uploads. Only the text layer
// is extracted; pages are joined with a blank line.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load extracts the plain text of every page.
func (l *PdfLoader) Load(ctx context.Context, fileName string, data []byte) (doc *schema.Document, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse pdf %s: %v: %w", fileName, r, apperr.ErrValidation)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %v: %w", fileName, err, apperr.ErrValidation)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d of %s: %v: %w", i, fileName, err, apperr.ErrValidation)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	return &schema.Document{FileName: fileName, Text: strings.Join(pages, "\n\n")}, nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
