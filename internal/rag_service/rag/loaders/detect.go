package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/interfaces"

	"github.com/gabriel-vasile/mimetype"
)

// Content types of accepted uploads.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeText = "text/plain"
)

// Detect picks the loader for an upload. The extension must be .pdf or .txt and
// the sniffed content has to agree with it.
func Detect(fileName string, data []byte) (interfaces.Loader, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%s is empty: %w", fileName, apperr.ErrValidation)
	}

	mtype := mimetype.Detect(data)
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".pdf":
		if !mtype.Is(ContentTypePDF) {
			return nil, "", fmt.Errorf("%s has a .pdf extension but looks like %s: %w", fileName, mtype.String(), apperr.ErrValidation)
		}
		return NewPdfLoader(), ContentTypePDF, nil
	case ".txt":
		if !isText(mtype) {
			return nil, "", fmt.Errorf("%s has a .txt extension but looks like %s: %w", fileName, mtype.String(), apperr.ErrValidation)
		}
		return NewTxtLoader(), ContentTypeText, nil
	default:
		return nil, "", fmt.Errorf("unsupported file type %q, only .pdf and .txt are accepted: %w", ext, apperr.ErrValidation)
	}
}

// isText accepts text/plain and its descendants (csv, json, html, ...).
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(ContentTypeText) {
			return true
		}
	}
	return false
}
