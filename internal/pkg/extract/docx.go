package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/docqa/rag-backend/internal/entity"
	"github.com/unidoc/unioffice/document"
)

// docxText extracts paragraph text from a DOCX file
func docxText(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: read docx: %v", entity.ErrExtraction, err)
	}

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
