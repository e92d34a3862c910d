package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/docqa/rag-backend/internal/entity"
	"github.com/docqa/rag-backend/internal/pkg/formatter"
	"github.com/docqa/rag-backend/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   AnswerUsecase
	formatter *formatter.Factory
}

func NewHandler(usecase AnswerUsecase, formatter *formatter.Factory) *Handler {
	return &Handler{
		usecase:   usecase,
		formatter: formatter,
	}
}

// GenerateAnswer handles POST /generate-answer
func (h *Handler) GenerateAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GenerateAnswer")

	userID := resolveUserID(ctx, r)
	ctx = logger.AddFields(ctx, zap.String("user_id", userID))

	req, ok := h.decodeRequest(ctx, w, r)
	if !ok {
		return
	}

	ans, err := h.usecase.GenerateAnswer(ctx, userID, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "answer generated successfully",
		zap.Int("sources", len(ans.Sources)),
		zap.Int("expanded_queries", len(ans.ExpandedQueries)),
	)
	h.respondJSON(w, http.StatusOK, toGenerateAnswerResponse(userID, req, ans))
}

// ExportAnswer handles POST /generate-answer/export. It runs the same
// pipeline as GenerateAnswer but streams the answer back as a downloadable
// file in the requested format.
func (h *Handler) ExportAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ExportAnswer")

	userID := resolveUserID(ctx, r)
	ctx = logger.AddFields(ctx, zap.String("user_id", userID))

	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.ExportMarkdown
	}
	if !format.IsValid() {
		h.respondError(ctx, w, http.StatusBadRequest,
			fmt.Sprintf("unsupported format %q (allowed: markdown, docx, pdf)", format), nil)
		return
	}

	req, ok := h.decodeRequest(ctx, w, r)
	if !ok {
		return
	}

	ans, err := h.usecase.GenerateAnswer(ctx, userID, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	f, err := h.formatter.Create(format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	data, err := f.Format(ans)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to render answer", err)
		return
	}

	ctxzap.Info(ctx, "answer exported",
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)),
	)

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=answer%s", f.FileExtension()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) decodeRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (*entity.GenerateAnswerRequest, bool) {
	var req entity.GenerateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return nil, false
	}
	return &req, true
}

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
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, entity.ErrEmbeddingService):
		h.respondError(ctx, w, http.StatusBadGateway, "embedding service unavailable", err)
	case errors.Is(err, entity.ErrGenerationService):
		h.respondError(ctx, w, http.StatusBadGateway, "generation service unavailable", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
