package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/docqa/rag-backend/internal/entity"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.size, tc.overlap); !errors.Is(err, entity.ErrInvalidChunkConfig) {
				t.Fatalf("New(%d, %d) = %v, want ErrInvalidChunkConfig", tc.size, tc.overlap, err)
			}
		})
	}
}

func TestSplitShortTextYieldsOneChunk(t *testing.T) {
	c, err := New(100, 20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	chunks := c.Split("short text")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "short text" {
		t.Fatalf("chunk content = %q, want %q", chunks[0].Content, "short text")
	}
	if chunks[0].StartOffset != 0 || chunks[0].EndOffset != 10 {
		t.Fatalf("offsets = [%d, %d), want [0, 10)", chunks[0].StartOffset, chunks[0].EndOffset)
	}
}

func TestSplitEmptyTextYieldsNoChunks(t *testing.T) {
	c, _ := New(100, 20)
	if chunks := c.Split(""); len(chunks) != 0 {
		t.Fatalf("got %d chunks for empty text, want 0", len(chunks))
	}
}

func TestSplitOverlapFormula(t *testing.T) {
	// Three paragraphs, 300 runes total: with size=100, overlap=20 the step
	// is 80 so the expected count is ceil((300-100)/80)+1 = 4.
	text := strings.Repeat("a", 300)
	c, _ := New(100, 20)

	chunks := c.Split(text)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.StartOffset != prev.StartOffset+80 {
			t.Fatalf("chunk %d starts at %d, want %d", i, cur.StartOffset, prev.StartOffset+80)
		}
		if prev.EndOffset-prev.StartOffset == 100 && cur.StartOffset != prev.EndOffset-20 {
			t.Fatalf("chunk %d does not overlap its predecessor by 20 runes", i)
		}
	}
}

func TestSplitReconstructsOriginalText(t *testing.T) {
	text := "Per-user knowledge bases keep documents isolated. " +
		strings.Repeat("Retrieval works over overlapping chunk windows. ", 8)
	c, _ := New(64, 16)

	chunks := c.Split(text)
	runes := []rune(text)

	var rebuilt []rune
	for i, ch := range chunks {
		span := []rune(ch.Content)
		if string(runes[ch.StartOffset:ch.EndOffset]) != ch.Content {
			t.Fatalf("chunk %d content does not match its offsets", i)
		}
		if i == 0 {
			rebuilt = append(rebuilt, span...)
			continue
		}
		skip := chunks[i-1].EndOffset - ch.StartOffset
		rebuilt = append(rebuilt, span[skip:]...)
	}

	if string(rebuilt) != text {
		t.Fatalf("reconstructed text differs from original")
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	text := strings.Repeat("deterministic chunking of the same input ", 20)
	c, _ := New(120, 30)

	first := c.Split(text)
	second := c.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content ||
			first[i].StartOffset != second[i].StartOffset ||
			first[i].EndOffset != second[i].EndOffset {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitMultiByteRunes(t *testing.T) {
	text := strings.Repeat("日本語のテキスト。", 30)
	c, _ := New(50, 10)

	chunks := c.Split(text)
	runes := []rune(text)
	for i, ch := range chunks {
		if string(runes[ch.StartOffset:ch.EndOffset]) != ch.Content {
			t.Fatalf("chunk %d offsets are not rune-accurate", i)
		}
	}
	last := chunks[len(chunks)-1]
	if last.EndOffset != len(runes) {
		t.Fatalf("last chunk ends at %d, want %d", last.EndOffset, len(runes))
	}
}
