package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/docqa/rag-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is a deterministic stand-in for the generation service
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Generate(ctx context.Context, system string, messages []entity.ChatMessage) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer", zap.Int("messages", len(messages)))

	question := lastUserMessage(messages)
	if question == "" {
		return "I could not find a question in the conversation.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on the provided context, here is what I found about %q.\n\n", question)
	if strings.Contains(system, "Context:") {
		b.WriteString("The uploaded documents contain relevant passages, summarized above. ")
	} else {
		b.WriteString("No relevant passages were found in the uploaded documents. ")
	}
	b.WriteString("This is a mock answer for local development.")
	return b.String(), nil
}

func (m *MockConnector) Expand(ctx context.Context, question string, count int) ([]string, error) {
	ctxzap.Info(ctx, "[MOCK] expanding question", zap.Int("count", count))

	templates := []string{
		"In other words: %s",
		"Could you explain %s",
		"What does the documentation say about %s",
		"Details regarding %s",
		"Please describe %s",
	}
	if count > len(templates) {
		count = len(templates)
	}
	variants := make([]string, 0, count)
	for i := 0; i < count; i++ {
		variants = append(variants, fmt.Sprintf(templates[i], question))
	}
	return variants, nil
}

func lastUserMessage(messages []entity.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == entity.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
