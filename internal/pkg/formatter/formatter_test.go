package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/docqa/rag-backend/internal/entity"
)

func sampleAnswer() *entity.Answer {
	return &entity.Answer{
		Text: "Go is a statically typed language.",
		Sources: []entity.SourceRef{
			{DocumentName: "go.md", ChunkIndex: 2, Content: "...", Similarity: 0.91},
		},
	}
}

func TestFactoryCreate(t *testing.T) {
	factory := NewFactory()

	cases := []struct {
		format    entity.ResultFormat
		extension string
	}{
		{entity.ExportMarkdown, ".md"},
		{entity.ExportDOCX, ".docx"},
		{entity.ExportPDF, ".pdf"},
	}
	for _, tc := range cases {
		f, err := factory.Create(tc.format)
		if err != nil {
			t.Fatalf("create %s: %v", tc.format, err)
		}
		if f.FileExtension() != tc.extension {
			t.Errorf("%s: extension %q, want %q", tc.format, f.FileExtension(), tc.extension)
		}
		if f.ContentType() == "" {
			t.Errorf("%s: empty content type", tc.format)
		}
	}

	if _, err := factory.Create("html"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestMarkdownFormat(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(sampleAnswer())
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	text := string(out)
	if !strings.Contains(text, "# Answer") {
		t.Errorf("missing title:\n%s", text)
	}
	if !strings.Contains(text, "Go is a statically typed language.") {
		t.Errorf("missing answer body:\n%s", text)
	}
	if !strings.Contains(text, "go.md, chunk 2") {
		t.Errorf("missing source citation:\n%s", text)
	}
}

func TestPDFFormat(t *testing.T) {
	out, err := NewPDFFormatter().Format(sampleAnswer())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output is not a PDF, starts with %q", out[:min(8, len(out))])
	}
}

func TestDOCXFormat(t *testing.T) {
	out, err := NewDOCXFormatter().Format(sampleAnswer())
	if err != nil {
		t.Skipf("docx rendering unavailable: %v", err)
	}
	// DOCX files are zip archives.
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Errorf("output is not a zip archive, starts with %q", out[:min(4, len(out))])
	}
}
