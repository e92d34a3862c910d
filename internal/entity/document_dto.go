package entity

import "mime/multipart"

type UploadDocumentRequest struct {
	UserID string
	File   *multipart.FileHeader
}

type UploadDocumentResponse struct {
	UserID        string `json:"user_id"`
	DocumentName  string `json:"document_name"`
	Status        string `json:"status"`
	ChunksCreated int    `json:"chunks_created"`
}

type UploadMultipleRequest struct {
	UserID string
	Files  []*multipart.FileHeader
}

// UploadFileResult is the per-file outcome of a batch upload
type UploadFileResult struct {
	DocumentName  string `json:"document_name"`
	Status        string `json:"status"`
	ChunksCreated int    `json:"chunks_created,omitempty"`
	Error         string `json:"error,omitempty"`
}

type UploadMultipleResponse struct {
	UserID            string             `json:"user_id"`
	TotalFiles        int                `json:"total_files"`
	SuccessfulUploads int                `json:"successful_uploads"`
	FailedUploads     int                `json:"failed_uploads"`
	Results           []UploadFileResult `json:"results"`
}

type DocumentDetail struct {
	Name       string `json:"name"`
	Format     string `json:"format"`
	Size       int64  `json:"size"`
	Chunks     int    `json:"chunks"`
	UploadedAt string `json:"uploaded_at"`
}

type ListDocumentsResponse struct {
	UserID         string            `json:"user_id"`
	Documents      []*DocumentDetail `json:"documents"`
	TotalDocuments int               `json:"total_documents"`
}

type DeleteDocumentResponse struct {
	Status        string `json:"status"`
	DeletedChunks int    `json:"deleted_chunks"`
}

type ClearKnowledgeBaseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
