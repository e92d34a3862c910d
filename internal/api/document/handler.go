package document

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docqa/rag-backend/internal/config"
	"github.com/docqa/rag-backend/internal/entity"
	"github.com/docqa/rag-backend/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase KnowledgeUsecase
	cfg     config.FileUploadConfig
}

func NewHandler(usecase KnowledgeUsecase, cfg config.FileUploadConfig) *Handler {
	return &Handler{
		usecase: usecase,
		cfg:     cfg,
	}
}

// UploadDocument handles POST /documents/upload
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocument")

	userID := resolveUserID(ctx, r)
	ctx = logger.AddFields(ctx, zap.String("user_id", userID))

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		ctxzap.Warn(ctx, "no file provided")
		h.respondError(ctx, w, http.StatusBadRequest, "a file is required in the 'file' field", nil)
		return
	}

	ctxzap.Info(ctx, "uploading document", zap.String("filename", files[0].Filename))

	resp, err := h.usecase.Upload(ctx, &entity.UploadDocumentRequest{
		UserID: userID,
		File:   files[0],
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document uploaded successfully", zap.Int("chunks", resp.ChunksCreated))
	h.respondJSON(w, http.StatusOK, resp)
}

// UploadMultipleDocuments handles POST /documents/upload-multiple
func (h *Handler) UploadMultipleDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadMultipleDocuments")

	userID := resolveUserID(ctx, r)
	ctx = logger.AddFields(ctx, zap.String("user_id", userID))

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		ctxzap.Warn(ctx, "no files provided")
		h.respondError(ctx, w, http.StatusBadRequest, "at least one file is required in the 'files' field", nil)
		return
	}

	ctxzap.Info(ctx, "uploading documents", zap.Int("file_count", len(files)))

	resp, err := h.usecase.UploadMultiple(ctx, &entity.UploadMultipleRequest{
		UserID: userID,
		Files:  files,
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "documents uploaded",
		zap.Int("successful", resp.SuccessfulUploads),
		zap.Int("failed", resp.FailedUploads),
	)
	h.respondJSON(w, http.StatusOK, resp)
}

// ListDocuments handles GET /documents/list/{user_id}
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	ctx = logger.AddFields(ctx,
		zap.String("user_id", userID),
		zap.String("action", "ListDocuments"),
	)

	ctxzap.Debug(ctx, "listing documents")

	resp, err := h.usecase.List(ctx, userID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "documents listed successfully", zap.Int("count", resp.TotalDocuments))
	h.respondJSON(w, http.StatusOK, resp)
}

// DeleteDocument handles DELETE /documents/{user_id}/{filename}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	filename := chi.URLParam(r, "filename")

	ctx = logger.AddFields(ctx,
		zap.String("user_id", userID),
		zap.String("filename", filename),
		zap.String("action", "DeleteDocument"),
	)

	ctxzap.Info(ctx, "deleting document")

	resp, err := h.usecase.Delete(ctx, userID, filename)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document deleted successfully", zap.Int("chunks_removed", resp.DeletedChunks))
	h.respondJSON(w, http.StatusOK, resp)
}

// VectorStoreInfo handles GET /documents/vectorstore/info/{user_id}
func (h *Handler) VectorStoreInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	ctx = logger.AddFields(ctx,
		zap.String("user_id", userID),
		zap.String("action", "VectorStoreInfo"),
	)

	ctxzap.Debug(ctx, "fetching knowledge base info")

	info, err := h.usecase.Info(ctx, userID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, info)
}

// ClearKnowledgeBase handles POST /documents/clear/{user_id}
func (h *Handler) ClearKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	ctx = logger.AddFields(ctx,
		zap.String("user_id", userID),
		zap.String("action", "ClearKnowledgeBase"),
	)

	ctxzap.Info(ctx, "clearing knowledge base")

	resp, err := h.usecase.Clear(ctx, userID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "knowledge base cleared")
	h.respondJSON(w, http.StatusOK, resp)
}

// resolveUserID reads user_id from the query string, generating a fresh one
// when the client did not supply it. The generated ID comes back in the
// response so the client can reuse it.
func resolveUserID(ctx context.Context, r *http.Request) string {
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		return userID
	}
	userID := uuid.NewString()
	ctxzap.Info(ctx, "no user_id provided, generated one", zap.String("user_id", userID))
	return userID
}

// Helper methods
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrDocumentNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "document not found", err)
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrUnsupportedFormat) || errors.Is(err, entity.ErrInvalidFile) ||
		errors.Is(err, entity.ErrFileTooLarge) || errors.Is(err, entity.ErrTooManyFiles) ||
		errors.Is(err, entity.ErrInvalidExtension) || errors.Is(err, entity.ErrTotalSizeTooLarge):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	case errors.Is(err, entity.ErrExtraction):
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "could not extract text from document", err)
	case errors.Is(err, entity.ErrEmbeddingService):
		h.respondError(ctx, w, http.StatusBadGateway, "embedding service unavailable", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
