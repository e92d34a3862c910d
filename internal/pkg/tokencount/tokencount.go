package tokencount

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for prompt budget enforcement
type Counter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

type heuristicCounter struct{}

// Count approximates one token per four runes, the common rule of thumb for
// BPE tokenizers on western text.
func (heuristicCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// NewHeuristic returns a counter that needs no vocabulary data
func NewHeuristic() Counter {
	return heuristicCounter{}
}

// New returns a tiktoken-backed counter for the given model, falling back to
// the rune heuristic when the encoding is unavailable (e.g. no vocabulary
// cache and no network).
func New(model string) Counter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return heuristicCounter{}
	}
	return &tiktokenCounter{enc: enc}
}
