package answer

import (
	"context"

	"github.com/docqa/rag-backend/internal/entity"
)

// Embedder turns texts into vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator is the text generation service: grounded answers plus question
// paraphrasing for query expansion.
type Generator interface {
	Generate(ctx context.Context, system string, messages []entity.ChatMessage) (string, error)
	Expand(ctx context.Context, question string, count int) ([]string, error)
}
