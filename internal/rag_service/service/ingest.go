// Package service implements the use cases behind the HTTP API: ingestion,
// chat, the document registry and interview bookings.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"palm-rag/internal/apperr"
	"palm-rag/internal/config"
	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/dal"
	"palm-rag/internal/rag_service/rag/loaders"
	"palm-rag/internal/rag_service/rag/pipeline"
	"palm-rag/internal/rag_service/rag/schema"
	"palm-rag/internal/rag_service/rag/splitters"
	"palm-rag/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StatusSuccess is reported for a completed ingestion.
const StatusSuccess = "success"

// Archiver keeps a copy of uploaded files.
type Archiver interface {
	Put(ctx context.Context, documentID, fileName, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, key string) error
}

// IngestRequest is one uploaded file and its chunking options. Nil options
// take the configured defaults.
type IngestRequest struct {
	FileName     string
	Data         []byte
	DocumentID   string
	Strategy     string
	ChunkSize    *int
	ChunkOverlap *int
	MinChunkSize *int
}

// IngestResult is returned for a successful ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Status     string `json:"status"`
}

// IngestService turns uploads into indexed chunks.
type IngestService struct {
	indexing  *pipeline.IndexingPipeline
	documents *dal.DocumentDAL
	archive   Archiver
	defaults  config.ChunkingConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewIngestService creates an IngestService. archive may be nil.
func NewIngestService(
	indexing *pipeline.IndexingPipeline,
	documents *dal.DocumentDAL,
	archive Archiver,
	defaults config.ChunkingConfig,
	log *logger.Logger,
) *IngestService {
	return &IngestService{
		indexing:  indexing,
		documents: documents,
		archive:   archive,
		defaults:  defaults,
		log:       log,
		now:       time.Now,
	}
}

func (s *IngestService) options(req IngestRequest) splitters.Options {
	opts := splitters.Options{
		ChunkSize:    s.defaults.ChunkSize,
		ChunkOverlap: s.defaults.ChunkOverlap,
		MinChunkSize: s.defaults.MinChunkSize,
	}
	if req.ChunkSize != nil {
		opts.ChunkSize = *req.ChunkSize
	}
	if req.ChunkOverlap != nil {
		opts.ChunkOverlap = *req.ChunkOverlap
	}
	if req.MinChunkSize != nil {
		opts.MinChunkSize = *req.MinChunkSize
	}
	return opts
}

// Ingest parses, chunks, embeds and stores one file. Re-ingesting an existing
// document id replaces its chunks; when that fails part way the previous version
// is dropped from the registry as well.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		documentID = uuid.NewString()
	} else if _, err := uuid.Parse(documentID); err != nil {
		return nil, fmt.Errorf("document_id %q is not a UUID: %w", documentID, apperr.ErrValidation)
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = schema.StrategyFixedSize
	}
	if strategy != schema.StrategyFixedSize && strategy != schema.StrategySemantic {
		return nil, fmt.Errorf("unknown chunking strategy %q: %w", strategy, apperr.ErrValidation)
	}
	log := s.log.WithPayload(map[string]interface{}{"document_id": documentID, "file_name": req.FileName})

	// 1. Parse the upload
	loader, contentType, err := loaders.Detect(req.FileName, req.Data)
	if err != nil {
		return nil, err
	}
	doc, err := loader.Load(ctx, req.FileName, req.Data)
	if err != nil {
		return nil, err
	}
	doc.ID = documentID
	doc.IngestedAt = s.now().UTC()

	// 2. Look up a previous version; its chunks are replaced by the pipeline
	previous, err := s.documents.Get(ctx, documentID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	// 3. Chunk, embed, upsert
	opts := s.options(req)
	res, err := s.indexing.Run(ctx, doc, strategy, opts)
	if err != nil {
		var ie *apperr.IngestError
		if previous != nil && errors.As(err, &ie) {
			// the registry row no longer matches what is stored
			s.forget(ctx, previous, log)
		}
		return nil, err
	}

	// 4. Archive the original file; the document is usable without it
	var key string
	if s.archive != nil {
		if key, err = s.archive.Put(ctx, documentID, req.FileName, contentType, req.Data); err != nil {
			log.Warn(fmt.Sprintf("failed to archive upload: %v", err))
			key = ""
		}
	}

	// 5. Register
	options := datatypes.JSONMap{
		"chunk_size":    opts.ChunkSize,
		"chunk_overlap": opts.ChunkOverlap,
	}
	if strategy == schema.StrategySemantic {
		options["min_chunk_size"] = opts.MinChunkSize
	}
	record := &models.Document{
		DocumentID:  documentID,
		Filename:    req.FileName,
		ContentType: contentType,
		Strategy:    res.Strategy,
		Options:     options,
		TotalChunks: res.Indexed,
		CharCount:   utf8.RuneCountInString(doc.Text),
		FilePath:    key,
		CreatedAt:   doc.IngestedAt,
		UpdatedAt:   doc.IngestedAt,
	}
	if err := s.documents.Save(ctx, record); err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("ingested %d chunks", res.Indexed))
	return &IngestResult{DocumentID: documentID, Chunks: res.Indexed, Status: StatusSuccess}, nil
}

// forget removes the registry row and archived file of a document whose chunks
// could not be replaced.
func (s *IngestService) forget(ctx context.Context, previous *models.Document, log *logger.Logger) {
	if err := s.documents.Delete(ctx, previous.DocumentID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		log.Warn(fmt.Sprintf("failed to remove registry row of replaced document: %v", err))
	}
	if s.archive != nil && previous.FilePath != "" {
		if err := s.archive.Remove(ctx, previous.FilePath); err != nil {
			log.Warn(fmt.Sprintf("failed to remove archived upload: %v", err))
		}
	}
}

// FailedChunks returns the failed chunk indices carried by err, if any.
func FailedChunks(err error) []int {
	var ie *apperr.IngestError
	if errors.As(err, &ie) {
		return ie.Failed
	}
	return nil
}
