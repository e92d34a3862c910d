package knowledge

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/docqa/rag-backend/internal/config"
	"github.com/docqa/rag-backend/internal/entity"
	"github.com/docqa/rag-backend/internal/integration/embedding"
	"github.com/docqa/rag-backend/internal/pkg/chunker"
	"github.com/docqa/rag-backend/internal/pkg/validator"
	"github.com/docqa/rag-backend/internal/repository"
	"go.uber.org/zap"
)

func newTestUsecase(t *testing.T) (*KnowledgeUsecase, *repository.KnowledgeMemory) {
	t.Helper()

	ch, err := chunker.New(100, 20)
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}
	store := repository.NewKnowledgeMemory()
	uc := NewUsecase(
		store,
		embedding.NewMockConnector(32, zap.NewNop()),
		ch,
		validator.NewFileValidator(config.FileUploadConfig{
			MaxFileSize:  1 << 20,
			MaxTotalSize: 4 << 20,
			MaxFileCount: 4,
		}),
		zap.NewNop(),
	)
	return uc, store
}

// fileHeader builds a real multipart.FileHeader the way the HTTP layer
// produces one.
func fileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(8 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	headers := form.File["files"]
	if len(headers) != 1 {
		t.Fatalf("expected 1 file header, got %d", len(headers))
	}
	return headers[0]
}

func TestUploadIngestsDocument(t *testing.T) {
	ctx := context.Background()
	uc, store := newTestUsecase(t)

	content := strings.Repeat("the quick brown fox jumps over the lazy dog ", 10)
	resp, err := uc.Upload(ctx, &entity.UploadDocumentRequest{
		UserID: "u1",
		File:   fileHeader(t, "notes.txt", content),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("expected success status, got %q", resp.Status)
	}
	if resp.ChunksCreated < 2 {
		t.Errorf("expected multiple chunks for %d chars, got %d", len(content), resp.ChunksCreated)
	}

	info, err := store.Info(ctx, "u1")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.TotalDocuments != 1 || info.TotalChunks != resp.ChunksCreated {
		t.Errorf("store out of sync with response: %+v vs %d chunks", info, resp.ChunksCreated)
	}
}

func TestUploadSameNameReplacesDocument(t *testing.T) {
	ctx := context.Background()
	uc, store := newTestUsecase(t)

	long := strings.Repeat("alpha beta gamma delta ", 30)
	if _, err := uc.Upload(ctx, &entity.UploadDocumentRequest{
		UserID: "u1",
		File:   fileHeader(t, "notes.txt", long),
	}); err != nil {
		t.Fatalf("first upload: %v", err)
	}

	resp, err := uc.Upload(ctx, &entity.UploadDocumentRequest{
		UserID: "u1",
		File:   fileHeader(t, "notes.txt", "short replacement"),
	})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if resp.ChunksCreated != 1 {
		t.Fatalf("expected 1 chunk for short text, got %d", resp.ChunksCreated)
	}

	info, err := store.Info(ctx, "u1")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.TotalDocuments != 1 {
		t.Errorf("expected 1 document after overwrite, got %d", info.TotalDocuments)
	}
	if info.TotalChunks != 1 {
		t.Errorf("old chunks survived the overwrite: %d chunks", info.TotalChunks)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	_, err := uc.Upload(ctx, &entity.UploadDocumentRequest{
		UserID: "u1",
		File:   fileHeader(t, "image.png", "not a document"),
	})
	if !errors.Is(err, entity.ErrInvalidExtension) {
		t.Fatalf("expected ErrInvalidExtension, got %v", err)
	}
}

func TestUploadCanceledContext(t *testing.T) {
	uc, store := newTestUsecase(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Upload(ctx, &entity.UploadDocumentRequest{
		UserID: "u1",
		File:   fileHeader(t, "notes.txt", "some content"),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	info, err := store.Info(context.Background(), "u1")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.TotalDocuments != 0 {
		t.Errorf("canceled upload still wrote %d documents", info.TotalDocuments)
	}
}

func TestUploadMultiplePartialFailure(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	resp, err := uc.UploadMultiple(ctx, &entity.UploadMultipleRequest{
		UserID: "u1",
		Files: []*multipart.FileHeader{
			fileHeader(t, "good.txt", "perfectly fine content"),
			fileHeader(t, "empty.md", "   \n\t  "),
		},
	})
	if err != nil {
		t.Fatalf("upload multiple: %v", err)
	}

	if resp.SuccessfulUploads != 1 || resp.FailedUploads != 1 {
		t.Fatalf("expected 1 success and 1 failure, got %d/%d",
			resp.SuccessfulUploads, resp.FailedUploads)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Status != "success" {
		t.Errorf("good file should succeed: %+v", resp.Results[0])
	}
	if resp.Results[1].Status != "error" || resp.Results[1].Error == "" {
		t.Errorf("empty file should fail with a message: %+v", resp.Results[1])
	}
}

func TestUploadMultipleRejectsOversizedBatch(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	files := make([]*multipart.FileHeader, 0, 5)
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		files = append(files, fileHeader(t, name, "content"))
	}

	_, err := uc.UploadMultiple(ctx, &entity.UploadMultipleRequest{UserID: "u1", Files: files})
	if !errors.Is(err, entity.ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	for _, name := range []string{"a.txt", "b.txt"} {
		if _, err := uc.Upload(ctx, &entity.UploadDocumentRequest{
			UserID: "u1",
			File:   fileHeader(t, name, "content of "+name),
		}); err != nil {
			t.Fatalf("upload %s: %v", name, err)
		}
	}

	del, err := uc.Delete(ctx, "u1", "a.txt")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if del.Status != "deleted" || del.DeletedChunks != 1 {
		t.Errorf("unexpected delete response: %+v", del)
	}

	if _, err := uc.Delete(ctx, "u1", "a.txt"); !errors.Is(err, entity.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}

	cleared, err := uc.Clear(ctx, "u1")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.Status != "cleared" {
		t.Errorf("unexpected clear response: %+v", cleared)
	}

	list, err := uc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.TotalDocuments != 0 {
		t.Errorf("expected empty knowledge base, got %d documents", list.TotalDocuments)
	}
}

func TestListSanitizedNames(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	if _, err := uc.Upload(ctx, &entity.UploadDocumentRequest{
		UserID: "u1",
		File:   fileHeader(t, "my report (final).txt", "report body text"),
	}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	list, err := uc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(list.Documents))
	}
	if got := list.Documents[0].Name; got != "my_report_final.txt" {
		t.Errorf("expected sanitized name, got %q", got)
	}
}
