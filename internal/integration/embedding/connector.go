package embedding

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
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Connector talks to the embedding service. Responses are cached per input
// text so re-uploading a document or repeating a question does not re-embed
// unchanged content.
type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	cache     *gocache.Cache
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		cache:     gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:    logger,
	}
}

// EmbedBatch returns one vector per input text, in input order. Cached texts
// are served locally; only misses go to the service.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if cached, ok := c.cache.Get(text); ok {
			out[i] = cached.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		ctxzap.Debug(ctx, "all embeddings served from cache", zap.Int("count", len(texts)))
		return out, nil
	}

	ctxzap.Info(ctx, "requesting embeddings",
		zap.Int("total", len(texts)),
		zap.Int("cache_misses", len(missing)),
	)

	req := &entity.EmbedRequest{Model: c.config.Model, Input: missing}
	resp, err := retry.DoWithData(func() (*entity.EmbedResponse, error) {
		var r entity.EmbedResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.EmbedEndpoint, req, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}, append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(isTransient),
	)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbeddingService, err)
	}

	if len(resp.Data) != len(missing) {
		return nil, fmt.Errorf("%w: requested %d embeddings, got %d",
			entity.ErrEmbeddingService, len(missing), len(resp.Data))
	}

	for pos, data := range resp.Data {
		if len(data.Embedding) != c.config.Dimension {
			return nil, fmt.Errorf("%w: service returned dim %d, expected %d",
				entity.ErrDimensionMismatch, len(data.Embedding), c.config.Dimension)
		}
		idx := data.Index
		if idx < 0 || idx >= len(missing) {
			idx = pos
		}
		out[missingIdx[idx]] = data.Embedding
		c.cache.Set(missing[idx], data.Embedding, gocache.DefaultExpiration)
	}

	return out, nil
}

// Embed embeds a single text
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Connector) Dimension() int {
	return c.config.Dimension
}

// isTransient reports whether a request failure is worth retrying: network
// errors, timeouts, 429 and 5xx responses. Client errors are permanent.
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
