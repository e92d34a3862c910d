package formatter

import (
	"fmt"

	"github.com/docqa/rag-backend/internal/entity"
)

const baseTitle = "Answer"

// Formatter renders a generated answer with its source citations into a
// downloadable document.
type Formatter interface {
	Format(answer *entity.Answer) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.ExportMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.ExportDOCX:
		return NewDOCXFormatter(), nil
	case entity.ExportPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", entity.ErrInvalidParameter, format)
	}
}

func sourceLine(s entity.SourceRef) string {
	return fmt.Sprintf("%s, chunk %d (similarity %.2f)", s.DocumentName, s.ChunkIndex, s.Similarity)
}
