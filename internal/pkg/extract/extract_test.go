package extract

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/docqa/rag-backend/internal/entity"
	"github.com/jung-kurt/gofpdf"
	"github.com/unidoc/unioffice/document"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		filename string
		want     entity.DocumentFormat
	}{
		{"report.pdf", entity.FormatPDF},
		{"notes.DOCX", entity.FormatDOCX},
		{"readme.md", entity.FormatMarkdown},
		{"plain.txt", entity.FormatTXT},
	}
	for _, tc := range cases {
		got, err := DetectFormat(tc.filename)
		if err != nil {
			t.Fatalf("DetectFormat(%q) failed: %v", tc.filename, err)
		}
		if got != tc.want {
			t.Fatalf("DetectFormat(%q) = %s, want %s", tc.filename, got, tc.want)
		}
	}

	if _, err := DetectFormat("archive.zip"); !errors.Is(err, entity.ErrUnsupportedFormat) {
		t.Fatalf("DetectFormat(zip) = %v, want ErrUnsupportedFormat", err)
	}
}

func TestTextPlain(t *testing.T) {
	text, err := Text(entity.FormatTXT, []byte("hello   world\n\n\n\nsecond \t paragraph\n"))
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	want := "hello world\n\nsecond paragraph"
	if text != want {
		t.Fatalf("Text = %q, want %q", text, want)
	}
}

func TestTextPlainLatin1Fallback(t *testing.T) {
	// 0xE9 is 'é' in Latin-1 but invalid as a standalone UTF-8 byte
	text, err := Text(entity.FormatTXT, []byte{'c', 'a', 'f', 0xE9})
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "café" {
		t.Fatalf("Text = %q, want %q", text, "café")
	}
}

func TestTextEmptyDocument(t *testing.T) {
	if _, err := Text(entity.FormatTXT, []byte("   \n \t \n")); !errors.Is(err, entity.ErrExtraction) {
		t.Fatalf("Text(blank) = %v, want ErrExtraction", err)
	}
}

func TestTextPDF(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(60, 10, "Retrieval pipelines split documents into chunks.")
	pdf.Ln(12)
	pdf.Cell(60, 10, "Each chunk is embedded into a vector space.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build pdf fixture: %v", err)
	}

	text, err := Text(entity.FormatPDF, buf.Bytes())
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !strings.Contains(text, "split documents into chunks") {
		t.Fatalf("pdf text missing first line, got %q", text)
	}
	if !strings.Contains(text, "embedded into a vector space") {
		t.Fatalf("pdf text missing second line, got %q", text)
	}
}

func TestTextPDFCorrupted(t *testing.T) {
	if _, err := Text(entity.FormatPDF, []byte("%PDF-1.7 truncated garbage")); !errors.Is(err, entity.ErrExtraction) {
		t.Fatalf("Text(corrupt pdf) = %v, want ErrExtraction", err)
	}
}

func TestTextDOCX(t *testing.T) {
	doc := document.New()
	para := doc.AddParagraph()
	para.AddRun().AddText("Knowledge bases are isolated per user.")

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		t.Skipf("docx fixture unavailable: %v", err)
	}

	text, err := Text(entity.FormatDOCX, buf.Bytes())
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !strings.Contains(text, "isolated per user") {
		t.Fatalf("docx text = %q, want paragraph content", text)
	}
}

func TestTextDOCXCorrupted(t *testing.T) {
	if _, err := Text(entity.FormatDOCX, []byte("not a zip archive")); !errors.Is(err, entity.ErrExtraction) {
		t.Fatalf("Text(corrupt docx) = %v, want ErrExtraction", err)
	}
}
