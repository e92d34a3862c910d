package entity

// ResultFormat selects the download format for an exported answer
type ResultFormat string

const (
	ExportMarkdown ResultFormat = "markdown"
	ExportDOCX     ResultFormat = "docx"
	ExportPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case ExportMarkdown, ExportDOCX, ExportPDF:
		return true
	default:
		return false
	}
}

type GenerateAnswerRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// SourceRef identifies a chunk the answer was grounded on
type SourceRef struct {
	DocumentName string  `json:"document_name"`
	ChunkIndex   int     `json:"chunk_index"`
	Content      string  `json:"content"`
	Similarity   float64 `json:"similarity"`
}

type GenerateAnswerResponse struct {
	UserID          string        `json:"user_id"`
	Messages        []ChatMessage `json:"messages"`
	Answer          string        `json:"answer"`
	Sources         []SourceRef   `json:"sources"`
	ExpandedQueries []string      `json:"expanded_queries,omitempty"`
}

// Answer is the usecase-level result of the retrieval pipeline
type Answer struct {
	Text            string
	Sources         []SourceRef
	ExpandedQueries []string
}
