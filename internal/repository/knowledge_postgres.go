package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/docqa/rag-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// KnowledgePostgres is the pgvector-backed KnowledgeStore. Chunks carry a
// bigserial seq column so equal similarities resolve in insertion order, and
// document replacement runs inside one transaction so concurrent searches see
// either the old chunks or the new ones, never a mix.
type KnowledgePostgres struct {
	pool *pgxpool.Pool
}

func NewKnowledgePostgres(pool *pgxpool.Pool) *KnowledgePostgres {
	return &KnowledgePostgres{pool: pool}
}

func (s *KnowledgePostgres) UpsertDocument(ctx context.Context, doc *entity.Document, chunks []entity.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replace any previous version of this document. ON DELETE CASCADE
	// removes its chunks.
	if _, err := tx.Exec(ctx,
		`DELETE FROM documents WHERE user_id = $1 AND name = $2`,
		doc.UserID, doc.Name,
	); err != nil {
		return fmt.Errorf("delete previous document: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO documents (id, user_id, name, format, size, chunk_count, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.UserID, doc.Name, string(doc.Format), doc.Size, len(chunks), doc.UploadedAt,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for _, c := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chunks (id, document_id, chunk_index, content, start_offset, end_offset, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, doc.ID, c.Index, c.Content, c.StartOffset, c.EndOffset, pgvector.NewVector(c.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	doc.ChunkCount = len(chunks)
	return nil
}

func (s *KnowledgePostgres) Search(ctx context.Context, userID string, query []float32, limit int) ([]entity.ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.document_id, c.chunk_index, c.content, c.start_offset, c.end_offset,
		        d.name, 1 - (c.embedding <=> $2) AS similarity
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE d.user_id = $1
		 ORDER BY c.embedding <=> $2, c.seq
		 LIMIT $3`,
		userID, pgvector.NewVector(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var hits []entity.ScoredChunk
	for rows.Next() {
		var h entity.ScoredChunk
		if err := rows.Scan(
			&h.ID, &h.DocumentID, &h.Index, &h.Content, &h.StartOffset, &h.EndOffset,
			&h.DocumentName, &h.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk rows: %w", err)
	}
	return hits, nil
}

func (s *KnowledgePostgres) ListDocuments(ctx context.Context, userID string) ([]entity.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, format, size, chunk_count, uploaded_at
		 FROM documents
		 WHERE user_id = $1
		 ORDER BY uploaded_at, name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []entity.Document
	for rows.Next() {
		var d entity.Document
		var format string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &format, &d.Size, &d.ChunkCount, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		d.Format = entity.DocumentFormat(format)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return docs, nil
}

func (s *KnowledgePostgres) DeleteDocument(ctx context.Context, userID, name string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var docID string
	var chunkCount int
	err = tx.QueryRow(ctx,
		`SELECT id, chunk_count FROM documents WHERE user_id = $1 AND name = $2`,
		userID, name,
	).Scan(&docID, &chunkCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, entity.ErrDocumentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find document: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, docID); err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete tx: %w", err)
	}
	return chunkCount, nil
}

func (s *KnowledgePostgres) Clear(ctx context.Context, userID string) (int, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin clear tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var docs, chunks int
	err = tx.QueryRow(ctx,
		`SELECT count(*), coalesce(sum(chunk_count), 0)
		 FROM documents WHERE user_id = $1`,
		userID,
	).Scan(&docs, &chunks)
	if err != nil {
		return 0, 0, fmt.Errorf("count documents: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE user_id = $1`, userID); err != nil {
		return 0, 0, fmt.Errorf("clear documents: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit clear tx: %w", err)
	}
	return docs, chunks, nil
}

func (s *KnowledgePostgres) Info(ctx context.Context, userID string) (*entity.KnowledgeBaseInfo, error) {
	info := &entity.KnowledgeBaseInfo{UserID: userID}
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), coalesce(sum(chunk_count), 0)
		 FROM documents WHERE user_id = $1`,
		userID,
	).Scan(&info.TotalDocuments, &info.TotalChunks)
	if err != nil {
		return nil, fmt.Errorf("knowledge base info: %w", err)
	}

	info.Status = "empty"
	if info.TotalDocuments > 0 {
		info.Status = "ready"
	}
	return info, nil
}
