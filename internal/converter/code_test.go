package converter

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/jfarrand/coursechunk/internal/page"
)

func TestCodeConverter_SingleChunkPerFile(t *testing.T) {
	conv := &CodeConverter{Language: "python"}
	src := "# this comment is not a heading\ndef main():\n    pass\n"
	in := Input{
		Name: "solver.py",
		Data: []byte(src),
		Meta: page.Metadata{URL: "https://example.com/solver"},
	}

	chunks, err := conv.Convert(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	c := chunks[0]
	if !reflect.DeepEqual(c.HeadingPath, []string{"solver.py"}) {
		t.Errorf("expected the filename as the only heading, got %v", c.HeadingPath)
	}
	if !strings.Contains(c.Text, "```python") {
		t.Errorf("expected a python fence, got %q", c.Text)
	}
	if !strings.Contains(c.Text, "# this comment is not a heading") {
		t.Errorf("expected comment preserved inside the fence, got %q", c.Text)
	}
	if c.Filetype != "py" {
		t.Errorf("expected filetype py, got %q", c.Filetype)
	}
	if c.PageNum != 1 {
		t.Errorf("expected page 1, got %d", c.PageNum)
	}
}

func TestCodeConverter_ThroughRegistry(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conv, err := r.ForFile("scheme/eval.scm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chunks, err := conv.Convert(context.Background(), Input{
		Name: "eval.scm",
		Data: []byte("(define (square x) (* x x))\n"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "```scheme") {
		t.Errorf("expected a scheme fence, got %q", chunks[0].Text)
	}
	if chunks[0].Filetype != "scm" {
		t.Errorf("expected filetype scm, got %q", chunks[0].Filetype)
	}
}
