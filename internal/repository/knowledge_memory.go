package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/docqa/rag-backend/internal/entity"
)

// KnowledgeMemory is an in-process KnowledgeStore. It keeps one bucket per
// user guarded by a single RWMutex, so searches run concurrently while writes
// replace documents atomically. Intended for tests and single-node deployments
// without Postgres.
type KnowledgeMemory struct {
	mu      sync.RWMutex
	users   map[string]*memoryBucket
	nextSeq int64
}

type memoryBucket struct {
	docs map[string]*memoryDocument // keyed by document name
}

type memoryDocument struct {
	doc    entity.Document
	chunks []memoryChunk
}

type memoryChunk struct {
	chunk entity.Chunk
	seq   int64
}

func NewKnowledgeMemory() *KnowledgeMemory {
	return &KnowledgeMemory{users: make(map[string]*memoryBucket)}
}

func (s *KnowledgeMemory) UpsertDocument(ctx context.Context, doc *entity.Document, chunks []entity.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.users[doc.UserID]
	if !ok {
		bucket = &memoryBucket{docs: make(map[string]*memoryDocument)}
		s.users[doc.UserID] = bucket
	}

	stored := make([]memoryChunk, 0, len(chunks))
	for _, c := range chunks {
		s.nextSeq++
		stored = append(stored, memoryChunk{chunk: c, seq: s.nextSeq})
	}

	d := *doc
	d.ChunkCount = len(chunks)
	bucket.docs[doc.Name] = &memoryDocument{doc: d, chunks: stored}

	return nil
}

func (s *KnowledgeMemory) Search(ctx context.Context, userID string, query []float32, limit int) ([]entity.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.users[userID]
	if !ok {
		return nil, nil
	}

	type scored struct {
		hit entity.ScoredChunk
		seq int64
	}

	var hits []scored
	for _, md := range bucket.docs {
		for _, mc := range md.chunks {
			sim, err := cosineSimilarity(query, mc.chunk.Embedding)
			if err != nil {
				return nil, err
			}
			hits = append(hits, scored{
				hit: entity.ScoredChunk{
					Chunk:        mc.chunk,
					DocumentName: md.doc.Name,
					Similarity:   sim,
				},
				seq: mc.seq,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].hit.Similarity != hits[j].hit.Similarity {
			return hits[i].hit.Similarity > hits[j].hit.Similarity
		}
		return hits[i].seq < hits[j].seq
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]entity.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.hit)
	}
	return out, nil
}

func (s *KnowledgeMemory) ListDocuments(ctx context.Context, userID string) ([]entity.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.users[userID]
	if !ok {
		return nil, nil
	}

	docs := make([]entity.Document, 0, len(bucket.docs))
	for _, md := range bucket.docs {
		docs = append(docs, md.doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].Name < docs[j].Name
	})
	return docs, nil
}

func (s *KnowledgeMemory) DeleteDocument(ctx context.Context, userID, name string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.users[userID]
	if !ok {
		return 0, entity.ErrDocumentNotFound
	}
	md, ok := bucket.docs[name]
	if !ok {
		return 0, entity.ErrDocumentNotFound
	}

	removed := len(md.chunks)
	delete(bucket.docs, name)
	return removed, nil
}

func (s *KnowledgeMemory) Clear(ctx context.Context, userID string) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.users[userID]
	if !ok {
		return 0, 0, nil
	}

	docs := len(bucket.docs)
	chunks := 0
	for _, md := range bucket.docs {
		chunks += len(md.chunks)
	}
	delete(s.users, userID)
	return docs, chunks, nil
}

func (s *KnowledgeMemory) Info(ctx context.Context, userID string) (*entity.KnowledgeBaseInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	info := &entity.KnowledgeBaseInfo{UserID: userID, Status: "empty"}
	bucket, ok := s.users[userID]
	if !ok {
		return info, nil
	}

	info.TotalDocuments = len(bucket.docs)
	for _, md := range bucket.docs {
		info.TotalChunks += len(md.chunks)
	}
	if info.TotalDocuments > 0 {
		info.Status = "ready"
	}
	return info, nil
}

// cosineSimilarity returns the cosine of the angle between a and b. A zero
// vector has no direction and scores 0 against everything.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: query dim %d, stored dim %d", entity.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
