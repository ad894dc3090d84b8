package service

import (
	"context"
	"errors"
	"fmt"

	"palm-rag/internal/apperr"
	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/dal"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/pkg/logger"
)

// DocumentService exposes the registry of ingested documents.
type DocumentService struct {
	documents   *dal.DocumentDAL
	vectorStore interfaces.VectorStore
	archive     Archiver
	log         *logger.Logger
}

// NewDocumentService creates a DocumentService. archive may be nil.
func NewDocumentService(documents *dal.DocumentDAL, vectorStore interfaces.VectorStore, archive Archiver, log *logger.Logger) *DocumentService {
	return &DocumentService{documents: documents, vectorStore: vectorStore, archive: archive, log: log}
}

// List returns every ingested document, newest first.
func (s *DocumentService) List(ctx context.Context) ([]*models.Document, error) {
	return s.documents.List(ctx)
}

// Get returns one document.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*models.Document, error) {
	return s.documents.Get(ctx, documentID)
}

// Delete removes the vectors, the archived file and the registry row of a
// document. The row is kept when the vectors cannot be removed so the
// deletion can be retried.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.vectorStore.Delete(ctx, documentID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("delete vectors of %s: %w", documentID, err)
	}
	if s.archive != nil && doc.FilePath != "" {
		if err := s.archive.Remove(ctx, doc.FilePath); err != nil {
			s.log.WithPayload(map[string]interface{}{"document_id": documentID}).
				Warn(fmt.Sprintf("failed to remove archived upload: %v", err))
		}
	}
	return s.documents.Delete(ctx, documentID)
}
