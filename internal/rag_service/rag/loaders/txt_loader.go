package loaders

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TxtLoader implements the Loader interface for UTF-8 plain text uploads.
type TxtLoader struct{}

// NewTxtLoader creates a new TxtLoader.
func NewTxtLoader() *TxtLoader {
	return &TxtLoader{}
}

// Load decodes data as UTF-8 and trims surrounding whitespace.
func (l *TxtLoader) Load(_ context.Context, fileName string, data []byte) (*schema.Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8: %w", fileName, apperr.ErrValidation)
	}
	return &schema.Document{FileName: fileName, Text: strings.TrimSpace(string(data))}, nil
}

// compile-time check to ensure TxtLoader implements the Loader interface
var _ interfaces.Loader = (*TxtLoader)(nil)
