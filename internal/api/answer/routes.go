package answer

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers answer routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/generate-answer", func(r chi.Router) {
		r.Post("/", h.GenerateAnswer)
		r.Post("/export", h.ExportAnswer)
	})
}
