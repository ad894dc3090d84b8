package vectorstore

import (
	"context"

	"palm-rag/internal/database/qdrant"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"
)

// QdrantStore is an adapter over the Qdrant REST client. The chunk id is used as
// the point id and the chunk metadata as its payload.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a QdrantStore.
func NewQdrantStore(client *qdrant.Client) *QdrantStore {
	return &QdrantStore{client: client}
}

// Upsert writes or replaces one chunk vector.
func (s *QdrantStore) Upsert(ctx context.Context, chunkID string, vector []float32, meta schema.ChunkMetadata) error {
	return s.client.Upsert(ctx, []qdrant.Point{{ID: chunkID, Vector: vector, Payload: meta.ToMap()}})
}

// maxSearchWindow caps how far Query widens its search to settle ties.
const maxSearchWindow = 1024

// Query returns the nearest chunks. Qdrant orders equal scores arbitrarily, so
// the search window is widened until the score at position topK is followed by a
// strictly lower one (or the collection is exhausted), then ranked and cut.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, topK int, filter *schema.Filter) ([]schema.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	var match map[string]string
	if filter != nil && filter.DocumentID != "" {
		match = map[string]string{schema.MetadataKeyDocumentID: filter.DocumentID}
	}

	limit := topK + 1
	for {
		points, err := s.client.Search(ctx, vector, limit, match)
		if err != nil {
			return nil, err
		}
		hits := make([]schema.ScoredChunk, 0, len(points))
		for _, p := range points {
			hits = append(hits, schema.ScoredChunk{ChunkID: p.ID, Score: p.Score, Metadata: schema.MetadataFromMap(p.Payload)})
		}
		sortHits(hits)

		if len(hits) < limit || limit >= maxSearchWindow || hits[len(hits)-1].Score < hits[topK-1].Score {
			if len(hits) > topK {
				hits = hits[:topK]
			}
			return hits, nil
		}
		limit = min(limit*2, maxSearchWindow)
	}
}

// Delete removes every chunk of documentID.
func (s *QdrantStore) Delete(ctx context.Context, documentID string) error {
	return s.client.DeleteByFilter(ctx, map[string]string{schema.MetadataKeyDocumentID: documentID})
}

// Ping checks that Qdrant is reachable.
func (s *QdrantStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

var _ interfaces.VectorStore = (*QdrantStore)(nil)
