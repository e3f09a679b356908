package pipeline

import (
	"strings"
	"testing"
)

func TestGenerateULID_Shape(t *testing.T) {
	id := generateULID()
	if len(id) != 26 {
		t.Fatalf("expected 26 characters, got %d (%q)", len(id), id)
	}
	for _, c := range id {
		if !strings.ContainsRune(crockford, c) {
			t.Errorf("unexpected character %q in %q", c, id)
		}
	}
}

func TestGenerateULID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := generateULID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestGenerateULID_Sortable(t *testing.T) {
	// Same-millisecond IDs embed a sequence; across calls IDs must not
	// sort backwards.
	prev := generateULID()
	for i := 0; i < 100; i++ {
		next := generateULID()
		if next <= prev {
			t.Fatalf("expected %q > %q", next, prev)
		}
		prev = next
	}
}
