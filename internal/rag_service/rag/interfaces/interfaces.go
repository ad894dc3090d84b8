package interfaces

import (
	"context"

	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/schema"
)

// Loader extracts the plain text of an uploaded file.
type Loader interface {
	Load(ctx context.Context, fileName string, data []byte) (*schema.Document, error)
}

// Chunker splits the text of one document into ordered chunks.
type Chunker interface {
	Chunk(documentID, text string) ([]schema.Chunk, error)
}

// VectorStore stores chunk vectors and answers nearest-neighbour queries.
type VectorStore interface {
	// Upsert writes one vector, replacing any previous vector with the same chunk id.
	Upsert(ctx context.Context, chunkID string, vector []float32, meta schema.ChunkMetadata) error
	// Query returns at most topK hits ordered by descending score, ties by chunk id.
	Query(ctx context.Context, vector []float32, topK int, filter *schema.Filter) ([]schema.ScoredChunk, error)
	// Delete removes every chunk of a document.
	Delete(ctx context.Context, documentID string) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// SessionStore keeps the conversation history of chat sessions.
type SessionStore interface {
	// Append adds one turn to the end of the session, creating it if needed.
	Append(ctx context.Context, sessionID string, turn models.Turn) error
	// History returns the last limit turns, oldest first. limit <= 0 returns all turns.
	// Unknown sessions have an empty history.
	History(ctx context.Context, sessionID string, limit int) ([]models.Turn, error)
	// Clear deletes the session and reports whether it existed.
	Clear(ctx context.Context, sessionID string) (bool, error)
}

// SessionSelector picks the session backend to use for one request.
type SessionSelector interface {
	Select(ctx context.Context) SessionStore
}

// EmbeddingModel turns text into vectors.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
