package answer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docqa/rag-backend/internal/config"
	"github.com/docqa/rag-backend/internal/entity"
	"github.com/docqa/rag-backend/internal/pkg/tokencount"
	"github.com/docqa/rag-backend/internal/repository"
	playground "github.com/go-playground/validator/v10"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const systemPrompt = `You are a helpful assistant that answers questions using only the provided context.
If the context does not contain the answer, say so instead of guessing.`

// AnswerUsecase implements the question answering pipeline: expand the
// question into paraphrases, retrieve for every variant, merge and rank the
// hits, assemble a token-budgeted context and generate a grounded answer.
type AnswerUsecase struct {
	store     repository.KnowledgeStore
	embedder  Embedder
	generator Generator
	counter   tokencount.Counter
	validate  *playground.Validate
	cfg       config.PipelineConfig
	logger    *zap.Logger
}

// NewUsecase creates a new answer use case
func NewUsecase(
	store repository.KnowledgeStore,
	embedder Embedder,
	generator Generator,
	counter tokencount.Counter,
	cfg config.PipelineConfig,
	logger *zap.Logger,
) *AnswerUsecase {
	return &AnswerUsecase{
		store:     store,
		embedder:  embedder,
		generator: generator,
		counter:   counter,
		validate:  playground.New(),
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateAnswer runs the full retrieval pipeline for the last user message
// of the conversation.
func (uc *AnswerUsecase) GenerateAnswer(ctx context.Context, userID string, req *entity.GenerateAnswerRequest) (*entity.Answer, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}

	question := lastUserMessage(req.Messages)
	if question == "" {
		return nil, fmt.Errorf("%w: conversation has no user message", entity.ErrInvalidParameter)
	}

	queries, expanded := uc.expandQuestion(ctx, question)

	hits, err := uc.retrieve(ctx, userID, queries)
	if err != nil {
		return nil, err
	}

	contextBlock, sources := uc.assembleContext(ctx, hits)

	system := systemPrompt
	if contextBlock != "" {
		system = systemPrompt + "\n\nContext:\n" + contextBlock
	}

	text, err := uc.generator.Generate(ctx, system, req.Messages)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "answer generated",
		zap.String("user_id", userID),
		zap.Int("retrieved_chunks", len(hits)),
		zap.Int("cited_sources", len(sources)),
		zap.Int("expanded_queries", len(expanded)),
	)

	return &entity.Answer{
		Text:            text,
		Sources:         sources,
		ExpandedQueries: expanded,
	}, nil
}

// expandQuestion returns the retrieval query set: the original question plus
// up to the configured number of paraphrases. Expansion failures are
// recoverable; retrieval falls back to the original question alone.
func (uc *AnswerUsecase) expandQuestion(ctx context.Context, question string) (queries, expanded []string) {
	queries = []string{question}
	if uc.cfg.QueryExpansions == 0 {
		return queries, nil
	}

	variants, err := uc.generator.Expand(ctx, question, uc.cfg.QueryExpansions)
	if err != nil {
		ctxzap.Warn(ctx, "query expansion failed, using original question only", zap.Error(err))
		return queries, nil
	}

	seen := map[string]bool{question: true}
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		queries = append(queries, v)
		expanded = append(expanded, v)
	}
	return queries, expanded
}

// retrieve searches the store once per query and merges the hits, keeping the
// best similarity for a chunk found by several queries.
func (uc *AnswerUsecase) retrieve(ctx context.Context, userID string, queries []string) ([]entity.ScoredChunk, error) {
	vectors, err := uc.embedder.EmbedBatch(ctx, queries)
	if err != nil {
		return nil, err
	}

	best := make(map[string]entity.ScoredChunk)
	order := make(map[string]int)
	for _, vec := range vectors {
		hits, err := uc.store.Search(ctx, userID, vec, uc.cfg.TopK)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		for _, h := range hits {
			prev, ok := best[h.ID]
			if !ok {
				order[h.ID] = len(order)
				best[h.ID] = h
				continue
			}
			if h.Similarity > prev.Similarity {
				best[h.ID] = h
			}
		}
	}

	merged := make([]entity.ScoredChunk, 0, len(best))
	for _, h := range best {
		merged = append(merged, h)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return order[merged[i].ID] < order[merged[j].ID]
	})

	if len(merged) > uc.cfg.TopK {
		merged = merged[:uc.cfg.TopK]
	}
	return merged, nil
}

// assembleContext concatenates ranked chunks until the token budget is
// exhausted. A chunk that does not fit is skipped, not truncated.
func (uc *AnswerUsecase) assembleContext(ctx context.Context, hits []entity.ScoredChunk) (string, []entity.SourceRef) {
	var b strings.Builder
	var sources []entity.SourceRef
	budget := uc.cfg.ContextTokenBudget

	for _, h := range hits {
		block := fmt.Sprintf("[%s #%d]\n%s\n", h.DocumentName, h.Index, h.Content)
		cost := uc.counter.Count(block)
		if cost > budget {
			ctxzap.Debug(ctx, "chunk dropped, over token budget",
				zap.String("document", h.DocumentName),
				zap.Int("chunk_index", h.Index),
				zap.Int("cost", cost),
				zap.Int("budget_left", budget),
			)
			continue
		}
		budget -= cost
		b.WriteString(block)
		b.WriteString("\n")
		sources = append(sources, entity.SourceRef{
			DocumentName: h.DocumentName,
			ChunkIndex:   h.Index,
			Content:      h.Content,
			Similarity:   h.Similarity,
		})
	}

	return strings.TrimSpace(b.String()), sources
}

func lastUserMessage(messages []entity.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == entity.RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}
