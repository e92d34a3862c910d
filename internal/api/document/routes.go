package document

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers document routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/documents", func(r chi.Router) {
		r.Post("/upload", h.UploadDocument)
		r.Post("/upload-multiple", h.UploadMultipleDocuments)
		r.Get("/list/{user_id}", h.ListDocuments)
		r.Get("/vectorstore/info/{user_id}", h.VectorStoreInfo)
		r.Post("/clear/{user_id}", h.ClearKnowledgeBase)
		r.Delete("/{user_id}/{filename}", h.DeleteDocument)
	})
}
