package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"palm-rag/internal/apperr"
	"palm-rag/internal/config"
	"palm-rag/internal/database/qdrant"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"
)

// New builds the configured vector store. A qdrant provider without a URL yields
// an Unavailable store so that the service can still start.
func New(cfg config.VectorStoreConfig, dimension int, doer qdrant.Doer) (interfaces.VectorStore, error) {
	switch cfg.Provider {
	case "memory":
		return NewMemoryStore(dimension)
	case "qdrant", "":
		if cfg.Qdrant.URL == "" {
			return NewUnavailable("qdrant url is not configured"), nil
		}
		client, err := qdrant.New(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Dimension:  dimension,
		}, doer)
		if err != nil {
			return nil, err
		}
		return NewQdrantStore(client), nil
	default:
		return nil, fmt.Errorf("unknown vector store provider %q: %w", cfg.Provider, apperr.ErrInvalidConfig)
	}
}

// sortHits orders hits by descending score, ties by ascending chunk id.
func sortHits(hits []schema.ScoredChunk) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}

// Unavailable is used when no vector database is configured. Every call fails
// with apperr.ErrStoreUnavailable.
type Unavailable struct {
	reason string
}

// NewUnavailable creates an Unavailable store.
func NewUnavailable(reason string) *Unavailable {
	return &Unavailable{reason: reason}
}

func (u *Unavailable) err() error {
	return fmt.Errorf("%s: %w", u.reason, apperr.ErrStoreUnavailable)
}

func (u *Unavailable) Upsert(context.Context, string, []float32, schema.ChunkMetadata) error {
	return u.err()
}

func (u *Unavailable) Query(context.Context, []float32, int, *schema.Filter) ([]schema.ScoredChunk, error) {
	return nil, u.err()
}

func (u *Unavailable) Delete(context.Context, string) error { return u.err() }

func (u *Unavailable) Ping(context.Context) error { return u.err() }

var _ interfaces.VectorStore = (*Unavailable)(nil)
