package chunker

import (
	"fmt"

	"github.com/docqa/rag-backend/internal/entity"
)

// Chunker splits extracted text into fixed-size overlapping windows.
// Offsets are rune positions so that multi-byte text keeps the
// reconstruction invariant: chunk i+1 starts exactly overlap runes
// before chunk i ends.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", entity.ErrInvalidChunkConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be non-negative, got %d", entity.ErrInvalidChunkConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", entity.ErrInvalidChunkConfig, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split produces the ordered chunk sequence for text. Text shorter than the
// chunk size yields exactly one chunk; empty text yields none. The result is
// deterministic for a fixed configuration.
func (c *Chunker) Split(text string) []entity.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]entity.Chunk, 0, (len(runes)+step-1)/step)

	for start, idx := 0, 0; start < len(runes); start, idx = start+step, idx+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, entity.Chunk{
			Index:       idx,
			Content:     string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Size returns the configured window size in runes
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in runes
func (c *Chunker) Overlap() int { return c.overlap }
