package splitters

import (
	"fmt"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"
)

// FixedSize cuts text into windows of Size runes, each starting Size-Overlap runes
// after the previous one. The last window may be shorter.
type FixedSize struct {
	Size    int
	Overlap int
}

// NewFixedSize validates the window parameters.
func NewFixedSize(size, overlap int) (*FixedSize, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", size, apperr.ErrInvalidConfig)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d: %w", size, overlap, apperr.ErrInvalidConfig)
	}
	return &FixedSize{Size: size, Overlap: overlap}, nil
}

// Chunk implements interfaces.Chunker.
func (f *FixedSize) Chunk(documentID, text string) ([]schema.Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	runes := []rune(text)
	n := len(runes)
	step := f.Size - f.Overlap

	var chunks []schema.Chunk
	for start := 0; ; start += step {
		end := min(start+f.Size, n)
		chunks = append(chunks, newChunk(documentID, len(chunks), runes, start, end, schema.StrategyFixedSize))
		if end == n {
			break
		}
	}
	return chunks, nil
}

var _ interfaces.Chunker = (*FixedSize)(nil)
