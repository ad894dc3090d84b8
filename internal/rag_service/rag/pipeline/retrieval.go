package pipeline

import (
	"context"
	"fmt"

	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"
	"palm-rag/pkg/logger"
)

// DefaultTopK is the number of hits retrieved when none is configured.
const DefaultTopK = 5

// RetrievalPipeline embeds a query and looks up the nearest chunks.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	topK        int
	log         *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline.
func NewRetrievalPipeline(embedder interfaces.EmbeddingModel, vectorStore interfaces.VectorStore, topK int, log *logger.Logger) *RetrievalPipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RetrievalPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		topK:        topK,
		log:         log,
	}
}

// Run returns at most topK hits for query, highest score first.
func (p *RetrievalPipeline) Run(ctx context.Context, query string, filter *schema.Filter) ([]schema.ScoredChunk, error) {
	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := p.vectorStore.Query(ctx, vector, p.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}
	p.log.Debug(fmt.Sprintf("retrieved %d chunks", len(hits)))
	return hits, nil
}
