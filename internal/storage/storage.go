// Package storage defines the persistence interface for documents and chunks.
package storage

import (
	"context"

	"github.com/hyperjump/atsumeru/internal/models"
)

// Storage defines document and chunk persistence operations. The engine keeps
// its indexes in memory; this is the durable representation they are rebuilt
// from on startup.
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// Chunk operations
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.Chunk, error)
	ListChunks(ctx context.Context, offset, limit int) ([]*models.Chunk, error)
	DeleteChunksByDocumentID(ctx context.Context, docID string) error

	// Batch operations
	BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
