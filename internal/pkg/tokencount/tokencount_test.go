package tokencount

import (
	"strings"
	"testing"
)

func TestHeuristicCount(t *testing.T) {
	c := NewHeuristic()

	if got := c.Count(""); got != 0 {
		t.Fatalf("Count(\"\") = %d, want 0", got)
	}
	if got := c.Count("abc"); got != 1 {
		t.Fatalf("Count(3 runes) = %d, want 1", got)
	}
	if got := c.Count(strings.Repeat("a", 40)); got != 10 {
		t.Fatalf("Count(40 runes) = %d, want 10", got)
	}
}

func TestHeuristicCountIsMonotonic(t *testing.T) {
	c := NewHeuristic()
	prev := 0
	for n := 1; n <= 256; n *= 2 {
		got := c.Count(strings.Repeat("x", n))
		if got < prev {
			t.Fatalf("Count not monotonic at length %d: %d < %d", n, got, prev)
		}
		prev = got
	}
}
