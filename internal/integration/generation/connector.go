package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/docqa/rag-backend/internal/config"
	"github.com/docqa/rag-backend/internal/entity"
	"github.com/docqa/rag-backend/internal/integration/common"
	pkghttp "github.com/docqa/rag-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.GenerationConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.GenerationConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Generate produces an answer grounded in the supplied context
func (c *Connector) Generate(ctx context.Context, system string, messages []entity.ChatMessage) (string, error) {
	ctxzap.Info(ctx, "generating answer", zap.Int("messages", len(messages)))

	req := &entity.GenerationRequest{
		Model:    c.config.Model,
		System:   system,
		Messages: messages,
	}
	resp, err := retry.DoWithData(func() (*entity.GenerationResponse, error) {
		var r entity.GenerationResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.GenerateEndpoint, req, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}, append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(isTransient),
	)...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrGenerationService, err)
	}

	if resp.Answer == "" {
		return "", fmt.Errorf("%w: empty answer in response", entity.ErrGenerationService)
	}

	ctxzap.Info(ctx, "answer generated", zap.Int("answer_length", len(resp.Answer)))
	return resp.Answer, nil
}

// Expand asks for count paraphrases of the question. A short or empty variant
// list is not an error; the caller decides how to use what came back.
func (c *Connector) Expand(ctx context.Context, question string, count int) ([]string, error) {
	ctxzap.Info(ctx, "expanding question", zap.Int("count", count))

	req := &entity.ExpandRequest{
		Model:    c.config.Model,
		Question: question,
		Count:    count,
	}
	resp, err := retry.DoWithData(func() (*entity.ExpandResponse, error) {
		var r entity.ExpandResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.ExpandEndpoint, req, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}, append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(isTransient),
	)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrQueryExpansion, err)
	}

	variants := resp.Variants
	if len(variants) > count {
		variants = variants[:count]
	}
	return variants, nil
}

func isTransient(err error) bool {
	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return false
}
