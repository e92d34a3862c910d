package knowledge

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/docqa/rag-backend/internal/entity"
	"github.com/docqa/rag-backend/internal/pkg/chunker"
	"github.com/docqa/rag-backend/internal/pkg/extract"
	"github.com/docqa/rag-backend/internal/pkg/validator"
	"github.com/docqa/rag-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// KnowledgeUsecase implements knowledge base management: ingesting documents
// through the extract -> chunk -> embed pipeline and maintaining the per-user
// store.
type KnowledgeUsecase struct {
	store     repository.KnowledgeStore
	embedder  Embedder
	chunker   *chunker.Chunker
	validator *validator.Validator
	locks     *userLocks
	logger    *zap.Logger
}

// NewUsecase creates a new knowledge use case
func NewUsecase(
	store repository.KnowledgeStore,
	embedder Embedder,
	chunker *chunker.Chunker,
	validator *validator.Validator,
	logger *zap.Logger,
) *KnowledgeUsecase {
	return &KnowledgeUsecase{
		store:     store,
		embedder:  embedder,
		chunker:   chunker,
		validator: validator,
		locks:     newUserLocks(),
		logger:    logger,
	}
}

// Upload ingests a single document into the user's knowledge base. Uploading
// a filename that already exists replaces the previous document and all of
// its chunks.
func (uc *KnowledgeUsecase) Upload(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.UploadDocumentResponse, error) {
	if err := uc.validator.ValidateUpload([]*multipart.FileHeader{req.File}); err != nil {
		return nil, err
	}

	doc, chunks, err := uc.prepareDocument(ctx, req.UserID, req.File)
	if err != nil {
		return nil, err
	}

	// Embedding runs before the lock is taken; only the store write is
	// serialized per user.
	unlock := uc.locks.lock(req.UserID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := uc.store.UpsertDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	ctxzap.Info(ctx, "document ingested",
		zap.String("user_id", req.UserID),
		zap.String("document", doc.Name),
		zap.Int("chunks", len(chunks)),
	)

	return &entity.UploadDocumentResponse{
		UserID:        req.UserID,
		DocumentName:  doc.Name,
		Status:        "success",
		ChunksCreated: len(chunks),
	}, nil
}

// UploadMultiple ingests a batch of documents. Files are processed
// independently; one bad file does not fail the batch.
func (uc *KnowledgeUsecase) UploadMultiple(ctx context.Context, req *entity.UploadMultipleRequest) (*entity.UploadMultipleResponse, error) {
	if err := uc.validator.ValidateUpload(req.Files); err != nil {
		return nil, err
	}

	resp := &entity.UploadMultipleResponse{
		UserID:     req.UserID,
		TotalFiles: len(req.Files),
		Results:    make([]entity.UploadFileResult, 0, len(req.Files)),
	}

	for _, fh := range req.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		single, err := uc.Upload(ctx, &entity.UploadDocumentRequest{UserID: req.UserID, File: fh})
		if err != nil {
			ctxzap.Warn(ctx, "file ingestion failed",
				zap.String("file", fh.Filename),
				zap.Error(err),
			)
			resp.FailedUploads++
			resp.Results = append(resp.Results, entity.UploadFileResult{
				DocumentName: validator.SanitizeFilename(fh.Filename),
				Status:       "error",
				Error:        err.Error(),
			})
			continue
		}

		resp.SuccessfulUploads++
		resp.Results = append(resp.Results, entity.UploadFileResult{
			DocumentName:  single.DocumentName,
			Status:        "success",
			ChunksCreated: single.ChunksCreated,
		})
	}

	return resp, nil
}

// List returns the documents in the user's knowledge base
func (uc *KnowledgeUsecase) List(ctx context.Context, userID string) (*entity.ListDocumentsResponse, error) {
	docs, err := uc.store.ListDocuments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	details := make([]*entity.DocumentDetail, 0, len(docs))
	for _, d := range docs {
		details = append(details, &entity.DocumentDetail{
			Name:       d.Name,
			Format:     string(d.Format),
			Size:       d.Size,
			Chunks:     d.ChunkCount,
			UploadedAt: d.UploadedAt.Format(time.RFC3339),
		})
	}

	return &entity.ListDocumentsResponse{
		UserID:         userID,
		Documents:      details,
		TotalDocuments: len(details),
	}, nil
}

// Delete removes one document and its chunks
func (uc *KnowledgeUsecase) Delete(ctx context.Context, userID, name string) (*entity.DeleteDocumentResponse, error) {
	unlock := uc.locks.lock(userID)
	defer unlock()

	removed, err := uc.store.DeleteDocument(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "document deleted",
		zap.String("user_id", userID),
		zap.String("document", name),
		zap.Int("chunks_removed", removed),
	)

	return &entity.DeleteDocumentResponse{
		Status:        "deleted",
		DeletedChunks: removed,
	}, nil
}

// Info reports aggregate statistics about the user's knowledge base
func (uc *KnowledgeUsecase) Info(ctx context.Context, userID string) (*entity.KnowledgeBaseInfo, error) {
	info, err := uc.store.Info(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("knowledge base info: %w", err)
	}
	return info, nil
}

// Clear removes every document of the user
func (uc *KnowledgeUsecase) Clear(ctx context.Context, userID string) (*entity.ClearKnowledgeBaseResponse, error) {
	unlock := uc.locks.lock(userID)
	defer unlock()

	docs, chunks, err := uc.store.Clear(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("clear knowledge base: %w", err)
	}

	ctxzap.Info(ctx, "knowledge base cleared",
		zap.String("user_id", userID),
		zap.Int("documents", docs),
		zap.Int("chunks", chunks),
	)

	return &entity.ClearKnowledgeBaseResponse{
		Status:  "cleared",
		Message: fmt.Sprintf("removed %d documents (%d chunks)", docs, chunks),
	}, nil
}

// prepareDocument runs the ingestion pipeline up to (but not including) the
// store write: read, extract, chunk, embed.
func (uc *KnowledgeUsecase) prepareDocument(ctx context.Context, userID string, fh *multipart.FileHeader) (*entity.Document, []entity.Chunk, error) {
	name := validator.SanitizeFilename(fh.Filename)

	format, err := extract.DetectFormat(name)
	if err != nil {
		return nil, nil, err
	}

	file, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", entity.ErrInvalidFile, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", entity.ErrInvalidFile, name, err)
	}

	text, err := extract.Text(format, data)
	if err != nil {
		return nil, nil, err
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("%w: document %s has no extractable text", entity.ErrExtraction, name)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, nil, err
	}

	doc := &entity.Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Format:     format,
		Size:       fh.Size,
		UploadedAt: time.Now().UTC(),
	}
	for i := range chunks {
		chunks[i].ID = uuid.NewString()
		chunks[i].DocumentID = doc.ID
		chunks[i].Embedding = vectors[i]
	}

	return doc, chunks, nil
}
