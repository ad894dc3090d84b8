// Package splitters cuts document text into chunks. All sizes and offsets are
// counted in runes, and chunk text is always an unmodified span of the input.
package splitters

import (
	"fmt"
	"strings"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"
)

// DefaultMinChunkSize is the semantic minimum when none is configured.
const DefaultMinChunkSize = 200

// Options configures a chunker.
type Options struct {
	// ChunkSize is the window size for fixed_size and the target size for semantic.
	ChunkSize int
	// ChunkOverlap is the number of runes shared by consecutive fixed_size chunks.
	ChunkOverlap int
	// MinChunkSize is the semantic minimum; 0 selects DefaultMinChunkSize.
	MinChunkSize int
	// MaxChunkSize is the semantic maximum; 0 selects 2*ChunkSize.
	MaxChunkSize int
}

// New returns the chunker for strategy. An empty strategy selects fixed_size.
func New(strategy string, opts Options) (interfaces.Chunker, error) {
	switch strategy {
	case schema.StrategyFixedSize, "":
		return NewFixedSize(opts.ChunkSize, opts.ChunkOverlap)
	case schema.StrategySemantic:
		return NewSemantic(opts.ChunkSize, opts.MinChunkSize, opts.MaxChunkSize)
	default:
		return nil, fmt.Errorf("unknown chunking strategy %q: %w", strategy, apperr.ErrInvalidConfig)
	}
}

// Chunk splits text with the given strategy and options.
func Chunk(documentID, text, strategy string, opts Options) ([]schema.Chunk, error) {
	c, err := New(strategy, opts)
	if err != nil {
		return nil, err
	}
	return c.Chunk(documentID, text)
}

func newChunk(documentID string, index int, runes []rune, start, end int, strategy string) schema.Chunk {
	return schema.Chunk{
		ID:         schema.ChunkID(documentID, index),
		DocumentID: documentID,
		Index:      index,
		Text:       string(runes[start:end]),
		Start:      start,
		End:        end,
		Strategy:   strategy,
	}
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
