package answer

import (
	"context"

	"github.com/docqa/rag-backend/internal/entity"
)

type AnswerUsecase interface {
	GenerateAnswer(ctx context.Context, userID string, req *entity.GenerateAnswerRequest) (*entity.Answer, error)
}
