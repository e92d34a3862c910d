package repository

import (
	"context"

	"github.com/docqa/rag-backend/internal/entity"
)

// KnowledgeStore persists per-user documents and their embedded chunks.
// All operations are scoped by userID; no call may observe another user's data.
type KnowledgeStore interface {
	// UpsertDocument stores a document and its chunks. If a document with the
	// same name already exists for the user, it is replaced atomically together
	// with all of its chunks.
	UpsertDocument(ctx context.Context, doc *entity.Document, chunks []entity.Chunk) error

	// Search returns up to limit chunks of the user ordered by cosine
	// similarity to the query vector, most similar first. Ties are broken by
	// insertion order.
	Search(ctx context.Context, userID string, query []float32, limit int) ([]entity.ScoredChunk, error)

	// ListDocuments returns the user's documents ordered by upload time.
	ListDocuments(ctx context.Context, userID string) ([]entity.Document, error)

	// DeleteDocument removes a document and all of its chunks, returning the
	// number of chunks removed. Returns entity.ErrDocumentNotFound if the user
	// has no document with that name.
	DeleteDocument(ctx context.Context, userID, name string) (int, error)

	// Clear removes all documents and chunks of the user and reports how many
	// of each were removed.
	Clear(ctx context.Context, userID string) (docs int, chunks int, err error)

	// Info returns aggregate statistics about the user's knowledge base.
	Info(ctx context.Context, userID string) (*entity.KnowledgeBaseInfo, error)
}
