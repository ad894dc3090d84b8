package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"
	"palm-rag/internal/rag_service/rag/splitters"
	"palm-rag/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the parallel upserts of one ingestion.
const DefaultConcurrency = 4

// IndexingPipeline orchestrates the process of splitting, embedding, and storing documents.
type IndexingPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	concurrency int
	log         *logger.Logger
}

// IndexResult describes one successful ingestion. Chunks holds every chunk the
// splitter produced; Indexed counts the ones stored, which excludes windows that
// contain only whitespace.
type IndexResult struct {
	DocumentID string
	Strategy   string
	Chunks     []schema.Chunk
	Indexed    int
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	concurrency int,
	log *logger.Logger,
) *IndexingPipeline {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &IndexingPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		concurrency: concurrency,
		log:         log,
	}
}

// Run chunks doc, embeds every non-blank chunk and replaces the vectors stored
// for doc.ID. Upserts run concurrently; every chunk is attempted and the indices
// of the failed ones are reported through *apperr.IngestError, after the chunks
// that did succeed have been removed again.
func (p *IndexingPipeline) Run(ctx context.Context, doc *schema.Document, strategy string, opts splitters.Options) (*IndexResult, error) {
	log := p.log.WithPayload(map[string]interface{}{"document_id": doc.ID, "strategy": strategy})

	// 1. Split the text
	chunks, err := splitters.Chunk(doc.ID, doc.Text, strategy, opts)
	if err != nil {
		return nil, err
	}
	var indexed []schema.Chunk
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) != "" {
			indexed = append(indexed, c)
		}
	}
	if len(indexed) == 0 {
		return nil, fmt.Errorf("document %s has no text to index: %w", doc.ID, apperr.ErrValidation)
	}
	log.Info(fmt.Sprintf("split into %d chunks, %d blank", len(chunks), len(chunks)-len(indexed)))

	// 2. Embed the chunks
	texts := make([]string, len(indexed))
	for i, c := range indexed {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		log.Error(fmt.Sprintf("failed to embed chunks: %v", err))
		return nil, fmt.Errorf("embed document %s: %w", doc.ID, err)
	}

	// 3. Drop the previous version so a shorter text leaves nothing behind
	if err := p.vectorStore.Delete(ctx, doc.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		log.Error(fmt.Sprintf("failed to remove previous chunks: %v", err))
		return nil, &apperr.IngestError{DocumentID: doc.ID, Total: len(indexed), Failed: chunkIndices(indexed), Err: err}
	}

	// 4. Store the vectors concurrently
	var (
		mu       sync.Mutex
		failed   []int
		firstErr error
		g        errgroup.Group
	)
	g.SetLimit(p.concurrency)
	for i, c := range indexed {
		g.Go(func() error {
			err := p.vectorStore.Upsert(ctx, c.ID, vectors[i], schema.MetadataFor(c, doc.FileName))
			if err != nil {
				mu.Lock()
				failed = append(failed, c.Index)
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		sort.Ints(failed)
		log.Error(fmt.Sprintf("%d of %d chunks failed to upsert: %v", len(failed), len(indexed), firstErr))
		if err := p.vectorStore.Delete(ctx, doc.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			log.Warn(fmt.Sprintf("failed to roll back stored chunks: %v", err))
		}
		return nil, &apperr.IngestError{DocumentID: doc.ID, Total: len(indexed), Failed: failed, Err: firstErr}
	}

	log.Info("successfully indexed document")
	return &IndexResult{DocumentID: doc.ID, Strategy: chunks[0].Strategy, Chunks: chunks, Indexed: len(indexed)}, nil
}

func chunkIndices(chunks []schema.Chunk) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = c.Index
	}
	return out
}
