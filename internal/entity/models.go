package entity

import (
	"fmt"
	"time"
)

// DocumentFormat identifies the source format of an uploaded document
type DocumentFormat string

const (
	FormatPDF      DocumentFormat = "pdf"
	FormatDOCX     DocumentFormat = "docx"
	FormatTXT      DocumentFormat = "txt"
	FormatMarkdown DocumentFormat = "md"
)

func (f DocumentFormat) IsValid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatTXT, FormatMarkdown:
		return true
	default:
		return false
	}
}

// Document is a single file inside a user's knowledge base. The filename is
// unique per user; re-uploading the same name replaces the document and all
// of its derived chunks.
type Document struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Name       string         `json:"name"`
	Format     DocumentFormat `json:"format"`
	Size       int64          `json:"size"`
	ChunkCount int            `json:"chunks"`
	UploadedAt time.Time      `json:"uploaded_at"`
}

// Chunk is a contiguous span of a document's extracted text, the unit of
// retrieval. Offsets are rune positions into the normalized text.
type Chunk struct {
	ID          string
	DocumentID  string
	Index       int
	Content     string
	StartOffset int
	EndOffset   int
	Embedding   []float32
}

// ScoredChunk is a retrieval hit: a chunk plus its similarity to the query
// and the name of its owning document for citation.
type ScoredChunk struct {
	Chunk
	DocumentName string
	Similarity   float64
}

// ChatRole is the author of a conversation message
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

func (r ChatRole) Validate() error {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return nil
	default:
		return fmt.Errorf("unknown chat role: %s", r)
	}
}

// ChatMessage is one turn of a conversation. Messages are request-scoped;
// the service keeps no history of its own.
type ChatMessage struct {
	Role    ChatRole `json:"role" validate:"required,oneof=user assistant system"`
	Content string   `json:"content" validate:"required"`
}

// KnowledgeBaseInfo summarizes the state of one user's knowledge base
type KnowledgeBaseInfo struct {
	UserID         string `json:"user_id"`
	TotalDocuments int    `json:"total_documents"`
	TotalChunks    int    `json:"total_chunks"`
	Status         string `json:"status"`
}
