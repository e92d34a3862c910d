package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/docqa/rag-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Storage backend: "postgres" (pgvector) or "memory"
	VectorBackend string `env:"VECTOR_BACKEND" envDefault:"postgres"`

	// Database configuration (postgres backend only)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbeddingCfg  EmbeddingConnectorConfig  `envPrefix:"EMBEDDING_"`
	GenerationCfg GenerationConnectorConfig `envPrefix:"GENERATION_"`

	// Retrieval pipeline configuration
	PipelineCfg PipelineConfig `envPrefix:"PIPELINE_"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	EmbedEndpoint string               `env:"EMBED_ENDPOINT" envDefault:"/embeddings"`
	Model         string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	Dimension     int                  `env:"DIMENSION" envDefault:"768"`
	CacheTTL      time.Duration        `env:"CACHE_TTL" envDefault:"1h"`
	Retry         pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type GenerationConnectorConfig struct {
	HTTPClientConfig
	GenerateEndpoint string               `env:"GENERATE_ENDPOINT" envDefault:"/generate"`
	ExpandEndpoint   string               `env:"EXPAND_ENDPOINT" envDefault:"/paraphrase"`
	Model            string               `env:"MODEL" envDefault:"gpt-4o-mini"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// PipelineConfig tunes chunking, retrieval and context assembly
type PipelineConfig struct {
	ChunkSize          int    `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap       int    `env:"CHUNK_OVERLAP" envDefault:"200"`
	TopK               int    `env:"TOP_K" envDefault:"5"`
	QueryExpansions    int    `env:"QUERY_EXPANSIONS" envDefault:"3"`
	ContextTokenBudget int    `env:"CONTEXT_TOKEN_BUDGET" envDefault:"3000"`
	TokenizerModel     string `env:"TOKENIZER_MODEL" envDefault:"gpt-4o-mini"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"`  // 10 MiB per file
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"52428800"` // 50 MiB per request
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"16"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"67108864"` // multipart memory limit
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.VectorBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres vector backend")
		}
	case "memory":
	default:
		return fmt.Errorf("VECTOR_BACKEND must be postgres or memory, got %q", cfg.VectorBackend)
	}

	if !cfg.EnableMocks {
		if cfg.EmbeddingCfg.Url == "" {
			return fmt.Errorf("EMBEDDING_SERVICE_URL is required when mocks are disabled")
		}
		if cfg.GenerationCfg.Url == "" {
			return fmt.Errorf("GENERATION_SERVICE_URL is required when mocks are disabled")
		}
	}

	if cfg.PipelineCfg.ChunkSize <= 0 {
		return fmt.Errorf("PIPELINE_CHUNK_SIZE must be positive, got %d", cfg.PipelineCfg.ChunkSize)
	}
	if cfg.PipelineCfg.ChunkOverlap < 0 || cfg.PipelineCfg.ChunkOverlap >= cfg.PipelineCfg.ChunkSize {
		return fmt.Errorf("PIPELINE_CHUNK_OVERLAP must be in [0, chunk size), got %d", cfg.PipelineCfg.ChunkOverlap)
	}
	if cfg.PipelineCfg.TopK < 1 || cfg.PipelineCfg.TopK > 100 {
		return fmt.Errorf("PIPELINE_TOP_K must be between 1 and 100, got %d", cfg.PipelineCfg.TopK)
	}
	if cfg.PipelineCfg.QueryExpansions < 0 || cfg.PipelineCfg.QueryExpansions > 10 {
		return fmt.Errorf("PIPELINE_QUERY_EXPANSIONS must be between 0 and 10, got %d", cfg.PipelineCfg.QueryExpansions)
	}
	if cfg.EmbeddingCfg.Dimension < 1 || cfg.EmbeddingCfg.Dimension > 4096 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be between 1 and 4096, got %d", cfg.EmbeddingCfg.Dimension)
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		return fmt.Errorf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns)
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns)
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
