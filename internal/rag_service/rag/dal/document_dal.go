package dal

import (
	"context"
	"errors"
	"fmt"

	"palm-rag/internal/apperr"
	"palm-rag/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentDAL provides data access methods for ingested document metadata.
type DocumentDAL struct {
	db *gorm.DB
}

// NewDocumentDAL creates a new DocumentDAL.
func NewDocumentDAL(db *gorm.DB) *DocumentDAL {
	return &DocumentDAL{db: db}
}

// Save inserts the document or, when the document id already exists, replaces
// its metadata. Re-ingesting a document therefore keeps a single row.
func (dal *DocumentDAL) Save(ctx context.Context, doc *models.Document) error {
	result := dal.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"filename", "content_type", "strategy", "options", "total_chunks", "char_count", "file_path", "updated_at",
		}),
	}).Create(doc)
	if result.Error != nil {
		return fmt.Errorf("save document %s: %w", doc.DocumentID, result.Error)
	}
	return nil
}

// Get returns the document with the given id.
func (dal *DocumentDAL) Get(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	err := dal.db.WithContext(ctx).Where("document_id = ?", documentID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %s: %w", documentID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	return &doc, nil
}

// Exists reports whether a document with the given id has been ingested.
func (dal *DocumentDAL) Exists(ctx context.Context, documentID string) (bool, error) {
	var n int64
	if err := dal.db.WithContext(ctx).Model(&models.Document{}).Where("document_id = ?", documentID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count document %s: %w", documentID, err)
	}
	return n > 0, nil
}

// List returns all documents, newest first.
func (dal *DocumentDAL) List(ctx context.Context) ([]*models.Document, error) {
	var docs []*models.Document
	if err := dal.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Delete removes the document row.
func (dal *DocumentDAL) Delete(ctx context.Context, documentID string) error {
	result := dal.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("delete document %s: %w", documentID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", documentID, apperr.ErrNotFound)
	}
	return nil
}
