package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"

	"github.com/philippgille/chromem-go"
)

const memoryCollection = "documents"

// MemoryStore keeps vectors in an in-process chromem-go collection. Contents are
// lost on restart.
type MemoryStore struct {
	collection *chromem.Collection
	dimension  int
}

// NewMemoryStore creates an empty MemoryStore for vectors of the given dimension.
func NewMemoryStore(dimension int) (*MemoryStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vector dimension %d: %w", dimension, apperr.ErrInvalidConfig)
	}
	// vectors are always supplied by the caller
	noEmbed := func(context.Context, string) ([]float32, error) {
		return nil, errors.New("memory store does not compute embeddings")
	}
	c, err := chromem.NewDB().GetOrCreateCollection(memoryCollection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &MemoryStore{collection: c, dimension: dimension}, nil
}

func (s *MemoryStore) checkDimension(vector []float32) error {
	if len(vector) != s.dimension {
		return fmt.Errorf("vector has %d dimensions, store expects %d: %w", len(vector), s.dimension, apperr.ErrInvalidConfig)
	}
	return nil
}

// Upsert writes or replaces one chunk vector.
func (s *MemoryStore) Upsert(ctx context.Context, chunkID string, vector []float32, meta schema.ChunkMetadata) error {
	if err := s.checkDimension(vector); err != nil {
		return err
	}
	return s.collection.AddDocument(ctx, chromem.Document{
		ID:        chunkID,
		Metadata:  toStringMap(meta),
		Embedding: append([]float32(nil), vector...),
		Content:   meta.Text,
	})
}

// Query returns the nearest chunks by cosine similarity. Every candidate is
// ranked before the cut so that ties at position topK resolve by chunk id.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, topK int, filter *schema.Filter) ([]schema.ScoredChunk, error) {
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}
	n := s.collection.Count()
	if topK <= 0 || n == 0 {
		return nil, nil
	}
	var where map[string]string
	if filter != nil && filter.DocumentID != "" {
		where = map[string]string{schema.MetadataKeyDocumentID: filter.DocumentID}
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query memory store: %w", err)
	}
	hits := make([]schema.ScoredChunk, 0, len(results))
	for _, r := range results {
		hits = append(hits, schema.ScoredChunk{
			ChunkID:  r.ID,
			Score:    float64(r.Similarity),
			Metadata: fromStringMap(r.Metadata),
		})
	}
	sortHits(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes every chunk of documentID.
func (s *MemoryStore) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("document id is empty: %w", apperr.ErrValidation)
	}
	return s.collection.Delete(ctx, map[string]string{schema.MetadataKeyDocumentID: documentID}, nil)
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Count returns the number of stored chunks.
func (s *MemoryStore) Count() int { return s.collection.Count() }

func toStringMap(m schema.ChunkMetadata) map[string]string {
	return map[string]string{
		schema.MetadataKeyDocumentID: m.DocumentID,
		schema.MetadataKeyChunkIndex: strconv.Itoa(m.ChunkIndex),
		schema.MetadataKeyText:       m.Text,
		schema.MetadataKeyStart:      strconv.Itoa(m.Start),
		schema.MetadataKeyEnd:        strconv.Itoa(m.End),
		schema.MetadataKeyStrategy:   m.Strategy,
		schema.MetadataKeyFileName:   m.FileName,
	}
}

func fromStringMap(m map[string]string) schema.ChunkMetadata {
	generic := make(map[string]any, len(m))
	for k, v := range m {
		generic[k] = v
	}
	return schema.MetadataFromMap(generic)
}

var _ interfaces.VectorStore = (*MemoryStore)(nil)
