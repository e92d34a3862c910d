package document

import (
	"context"

	"github.com/docqa/rag-backend/internal/entity"
)

type KnowledgeUsecase interface {
	Upload(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.UploadDocumentResponse, error)
	UploadMultiple(ctx context.Context, req *entity.UploadMultipleRequest) (*entity.UploadMultipleResponse, error)
	List(ctx context.Context, userID string) (*entity.ListDocumentsResponse, error)
	Delete(ctx context.Context, userID, name string) (*entity.DeleteDocumentResponse, error)
	Info(ctx context.Context, userID string) (*entity.KnowledgeBaseInfo, error)
	Clear(ctx context.Context, userID string) (*entity.ClearKnowledgeBaseResponse, error)
}
