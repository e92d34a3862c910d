package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docqa/rag-backend/internal/entity"
)

// DetectFormat maps a filename extension to a document format
func DetectFormat(filename string) (entity.DocumentFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return entity.FormatPDF, nil
	case ".docx":
		return entity.FormatDOCX, nil
	case ".txt":
		return entity.FormatTXT, nil
	case ".md":
		return entity.FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %s (supported: pdf, docx, txt, md)", entity.ErrUnsupportedFormat, ext)
	}
}

// Text extracts plain text from raw file bytes based on the declared format
// and normalizes whitespace. Extraction is best-effort for layout artifacts;
// a document that yields no text at all is reported as an extraction failure.
func Text(format entity.DocumentFormat, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch format {
	case entity.FormatPDF:
		text, err = pdfText(data)
	case entity.FormatDOCX:
		text, err = docxText(data)
	case entity.FormatTXT, entity.FormatMarkdown:
		text, err = plainText(data)
	default:
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", err
	}

	text = normalize(text)
	if text == "" {
		return "", fmt.Errorf("%w: document contains no extractable text", entity.ErrExtraction)
	}
	return text, nil
}

// normalize collapses runs of horizontal whitespace and limits consecutive
// blank lines to one, preserving paragraph boundaries.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var sb strings.Builder
	sb.Grow(len(text))

	blankLines := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blankLines++
			continue
		}
		if sb.Len() > 0 {
			if blankLines > 0 {
				sb.WriteString("\n\n")
			} else {
				sb.WriteString("\n")
			}
		}
		sb.WriteString(line)
		blankLines = 0
	}

	return sb.String()
}
