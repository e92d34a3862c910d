package answer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docqa/rag-backend/internal/config"
	"github.com/docqa/rag-backend/internal/entity"
	"github.com/docqa/rag-backend/internal/pkg/tokencount"
	"github.com/docqa/rag-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stubEmbedder maps known texts to fixed vectors so retrieval is fully
// predictable. Unknown texts embed to a constant fallback.
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = s.fallback
	}
	return out, nil
}

// stubGenerator records the system prompt it was called with
type stubGenerator struct {
	answer     string
	variants   []string
	expandErr  error
	lastSystem string
}

func (s *stubGenerator) Generate(_ context.Context, system string, _ []entity.ChatMessage) (string, error) {
	s.lastSystem = system
	return s.answer, nil
}

func (s *stubGenerator) Expand(_ context.Context, _ string, count int) ([]string, error) {
	if s.expandErr != nil {
		return nil, s.expandErr
	}
	if len(s.variants) > count {
		return s.variants[:count], nil
	}
	return s.variants, nil
}

func seedChunk(t *testing.T, store *repository.KnowledgeMemory, userID, docName, content string, vec []float32) {
	t.Helper()
	doc := &entity.Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       docName,
		Format:     entity.FormatTXT,
		UploadedAt: time.Now(),
	}
	err := store.UpsertDocument(context.Background(), doc, []entity.Chunk{{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Index:      0,
		Content:    content,
		Embedding:  vec,
	}})
	if err != nil {
		t.Fatalf("seed chunk: %v", err)
	}
}

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		ChunkSize:          1000,
		ChunkOverlap:       200,
		TopK:               5,
		QueryExpansions:    2,
		ContextTokenBudget: 3000,
	}
}

func userQuestion(q string) *entity.GenerateAnswerRequest {
	return &entity.GenerateAnswerRequest{
		Messages: []entity.ChatMessage{{Role: entity.RoleUser, Content: q}},
	}
}

func TestGenerateAnswerCitesSources(t *testing.T) {
	store := repository.NewKnowledgeMemory()
	seedChunk(t, store, "u1", "go.md", "Go is a statically typed language.", []float32{1, 0})
	seedChunk(t, store, "u1", "py.md", "Python is dynamically typed.", []float32{0, 1})

	gen := &stubGenerator{answer: "Go is statically typed."}
	uc := NewUsecase(store, &stubEmbedder{
		vectors:  map[string][]float32{"What is Go?": {1, 0}},
		fallback: []float32{1, 0},
	}, gen, tokencount.NewHeuristic(), pipelineConfig(), zap.NewNop())

	ans, err := uc.GenerateAnswer(context.Background(), "u1", userQuestion("What is Go?"))
	if err != nil {
		t.Fatalf("generate answer: %v", err)
	}
	if ans.Text != "Go is statically typed." {
		t.Errorf("unexpected answer: %q", ans.Text)
	}
	if len(ans.Sources) == 0 {
		t.Fatal("expected cited sources")
	}
	if ans.Sources[0].DocumentName != "go.md" {
		t.Errorf("best source should be go.md, got %q", ans.Sources[0].DocumentName)
	}
	if !strings.Contains(gen.lastSystem, "Go is a statically typed language.") {
		t.Errorf("retrieved chunk missing from system prompt:\n%s", gen.lastSystem)
	}
}

func TestGenerateAnswerExpansionFailureIsRecoverable(t *testing.T) {
	store := repository.NewKnowledgeMemory()
	seedChunk(t, store, "u1", "doc.txt", "relevant content", []float32{1, 0})

	gen := &stubGenerator{
		answer:    "an answer",
		expandErr: errors.New("paraphrase service down"),
	}
	uc := NewUsecase(store, &stubEmbedder{fallback: []float32{1, 0}},
		gen, tokencount.NewHeuristic(), pipelineConfig(), zap.NewNop())

	ans, err := uc.GenerateAnswer(context.Background(), "u1", userQuestion("anything"))
	if err != nil {
		t.Fatalf("expansion failure should not fail the pipeline: %v", err)
	}
	if len(ans.ExpandedQueries) != 0 {
		t.Errorf("expected no expanded queries after failure, got %v", ans.ExpandedQueries)
	}
	if ans.Text != "an answer" {
		t.Errorf("unexpected answer: %q", ans.Text)
	}
}

func TestGenerateAnswerReportsExpandedQueries(t *testing.T) {
	store := repository.NewKnowledgeMemory()
	seedChunk(t, store, "u1", "doc.txt", "content", []float32{1, 0})

	gen := &stubGenerator{
		answer:   "ok",
		variants: []string{"variant one", "variant two", "variant one"},
	}
	uc := NewUsecase(store, &stubEmbedder{fallback: []float32{1, 0}},
		gen, tokencount.NewHeuristic(), pipelineConfig(), zap.NewNop())

	ans, err := uc.GenerateAnswer(context.Background(), "u1", userQuestion("q"))
	if err != nil {
		t.Fatalf("generate answer: %v", err)
	}
	want := []string{"variant one", "variant two"}
	if len(ans.ExpandedQueries) != len(want) {
		t.Fatalf("expected %d deduplicated variants, got %v", len(want), ans.ExpandedQueries)
	}
	for i, v := range want {
		if ans.ExpandedQueries[i] != v {
			t.Errorf("variant %d: got %q, want %q", i, ans.ExpandedQueries[i], v)
		}
	}
}

func TestGenerateAnswerDeduplicatesHitsAcrossQueries(t *testing.T) {
	store := repository.NewKnowledgeMemory()
	seedChunk(t, store, "u1", "doc.txt", "shared chunk", []float32{1, 0})

	// Original question and its single variant embed to the same vector, so
	// both searches return the same chunk.
	gen := &stubGenerator{answer: "ok", variants: []string{"same thing rephrased"}}
	uc := NewUsecase(store, &stubEmbedder{fallback: []float32{1, 0}},
		gen, tokencount.NewHeuristic(), pipelineConfig(), zap.NewNop())

	ans, err := uc.GenerateAnswer(context.Background(), "u1", userQuestion("same thing"))
	if err != nil {
		t.Fatalf("generate answer: %v", err)
	}
	if len(ans.Sources) != 1 {
		t.Errorf("chunk found by two queries should be cited once, got %d sources", len(ans.Sources))
	}
}

func TestGenerateAnswerRespectsTokenBudget(t *testing.T) {
	store := repository.NewKnowledgeMemory()
	seedChunk(t, store, "u1", "big.txt", strings.Repeat("huge content block ", 100), []float32{1, 0})
	seedChunk(t, store, "u1", "small.txt", "tiny", []float32{0.9, 0.1})

	cfg := pipelineConfig()
	cfg.QueryExpansions = 0
	// Big chunk costs ~475 heuristic tokens; a budget of 30 only fits the
	// small one.
	cfg.ContextTokenBudget = 30

	gen := &stubGenerator{answer: "ok"}
	uc := NewUsecase(store, &stubEmbedder{fallback: []float32{1, 0}},
		gen, tokencount.NewHeuristic(), cfg, zap.NewNop())

	ans, err := uc.GenerateAnswer(context.Background(), "u1", userQuestion("q"))
	if err != nil {
		t.Fatalf("generate answer: %v", err)
	}
	if len(ans.Sources) != 1 {
		t.Fatalf("expected only the small chunk to fit, got %d sources", len(ans.Sources))
	}
	if ans.Sources[0].DocumentName != "small.txt" {
		t.Errorf("expected small.txt to survive the budget, got %q", ans.Sources[0].DocumentName)
	}
}

func TestGenerateAnswerEmptyKnowledgeBase(t *testing.T) {
	store := repository.NewKnowledgeMemory()
	gen := &stubGenerator{answer: "I do not know."}
	uc := NewUsecase(store, &stubEmbedder{fallback: []float32{1, 0}},
		gen, tokencount.NewHeuristic(), pipelineConfig(), zap.NewNop())

	ans, err := uc.GenerateAnswer(context.Background(), "u1", userQuestion("q"))
	if err != nil {
		t.Fatalf("generate answer: %v", err)
	}
	if len(ans.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(ans.Sources))
	}
	if strings.Contains(gen.lastSystem, "Context:") {
		t.Errorf("system prompt should not carry an empty context block:\n%s", gen.lastSystem)
	}
}

func TestGenerateAnswerValidation(t *testing.T) {
	store := repository.NewKnowledgeMemory()
	uc := NewUsecase(store, &stubEmbedder{fallback: []float32{1, 0}},
		&stubGenerator{answer: "ok"}, tokencount.NewHeuristic(), pipelineConfig(), zap.NewNop())

	cases := []struct {
		name string
		req  *entity.GenerateAnswerRequest
	}{
		{"no messages", &entity.GenerateAnswerRequest{}},
		{"bad role", &entity.GenerateAnswerRequest{
			Messages: []entity.ChatMessage{{Role: "robot", Content: "hi"}},
		}},
		{"no user message", &entity.GenerateAnswerRequest{
			Messages: []entity.ChatMessage{{Role: entity.RoleSystem, Content: "hi"}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.GenerateAnswer(context.Background(), "u1", tc.req)
			if !errors.Is(err, entity.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}
