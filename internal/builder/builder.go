package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/docqa/rag-backend/internal/api"
	answerapi "github.com/docqa/rag-backend/internal/api/answer"
	documentapi "github.com/docqa/rag-backend/internal/api/document"
	"github.com/docqa/rag-backend/internal/config"
	"github.com/docqa/rag-backend/internal/integration/embedding"
	"github.com/docqa/rag-backend/internal/integration/generation"
	"github.com/docqa/rag-backend/internal/pkg/chunker"
	"github.com/docqa/rag-backend/internal/pkg/formatter"
	"github.com/docqa/rag-backend/internal/pkg/tokencount"
	"github.com/docqa/rag-backend/internal/pkg/validator"
	"github.com/docqa/rag-backend/internal/repository"
	answeruc "github.com/docqa/rag-backend/internal/usecase/answer"
	"github.com/docqa/rag-backend/internal/usecase/knowledge"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("vector_backend", cfg.VectorBackend),
	)

	// Setup the knowledge store
	var store repository.KnowledgeStore
	var db *pgxpool.Pool
	switch cfg.VectorBackend {
	case "memory":
		store = repository.NewKnowledgeMemory()
		logger.Info("Using in-memory knowledge store")
	default:
		db, err = setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		store = repository.NewKnowledgePostgres(db)
	}

	// Initialize external service connectors (with mock support)
	var embedConnector knowledge.Embedder
	var genConnector answeruc.Generator

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedConnector = embedding.NewMockConnector(cfg.EmbeddingCfg.Dimension, logger)
		genConnector = generation.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		embedConnector = embedding.NewConnector(cfg.EmbeddingCfg, logger)
		genConnector = generation.NewConnector(cfg.GenerationCfg, logger)
	}

	// Initialize the ingestion pipeline pieces
	textChunker, err := chunker.New(cfg.PipelineCfg.ChunkSize, cfg.PipelineCfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("setup chunker: %w", err)
	}
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	tokenCounter := tokencount.New(cfg.PipelineCfg.TokenizerModel)

	// Initialize use cases
	knowledgeUC := knowledge.NewUsecase(
		store,
		embedConnector,
		textChunker,
		fileValidator,
		logger,
	)

	answerUC := answeruc.NewUsecase(
		store,
		embedConnector,
		genConnector,
		tokenCounter,
		cfg.PipelineCfg,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	documentHandler := documentapi.NewHandler(knowledgeUC, cfg.FileUploadCfg)
	answerHandler := answerapi.NewHandler(answerUC, formatter.NewFactory())
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentHandler, answerHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}
