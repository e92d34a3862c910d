package formatter

import (
	"bytes"
	"fmt"

	"github.com/docqa/rag-backend/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(answer *entity.Answer) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n%s\n", baseTitle, answer.Text)

	if len(answer.Sources) > 0 {
		buf.WriteString("\n## Sources\n\n")
		for _, s := range answer.Sources {
			fmt.Fprintf(&buf, "- %s\n", sourceLine(s))
		}
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
