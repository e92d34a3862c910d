package api

import (
	"net/http"
	"time"

	answerapi "github.com/docqa/rag-backend/internal/api/answer"
	"github.com/docqa/rag-backend/internal/api/docs"
	documentapi "github.com/docqa/rag-backend/internal/api/document"
	"github.com/docqa/rag-backend/internal/api/middleware"
	"github.com/docqa/rag-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(documentHandler *documentapi.Handler, answerHandler *answerapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                  // Recover from panics
	r.Use(chimiddleware.RequestID)                  // Add request ID
	r.Use(middleware.Logger(logger))                // Log requests
	r.Use(middleware.CORS)                          // Handle CORS
	r.Use(chimiddleware.Timeout(120 * time.Second)) // Ingestion and generation can be slow

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "healthy"})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	documentapi.RegisterRoutes(r, documentHandler)
	answerapi.RegisterRoutes(r, answerHandler)

	return r
}
