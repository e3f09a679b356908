package chunker

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jfarrand/coursechunk/internal/page"
)

func TestAssemble_NestedHeadingsWithPageMap(t *testing.T) {
	text := "# A\ntext1\n## B\ntext2\n# C\ntext3\n"
	meta := page.Metadata{
		URL: "https://example.com/doc",
		PageLineMap: []page.PageBreak{
			{Line: 1, Page: 1},
			{Line: 4, Page: 2},
		},
	}
	pg := page.Build("doc.md", text, "md", meta)

	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	want := []struct {
		text string
		path []string
		page int
	}{
		{"text1", []string{"A"}, 1},
		{"text2", []string{"A", "B"}, 2},
		{"text3", []string{"C"}, 2},
	}
	for i, w := range want {
		c := chunks[i]
		if c.Text != w.text {
			t.Errorf("chunk %d: expected text %q, got %q", i, w.text, c.Text)
		}
		if !reflect.DeepEqual(c.HeadingPath, w.path) {
			t.Errorf("chunk %d: expected path %v, got %v", i, w.path, c.HeadingPath)
		}
		if c.PageNum != w.page {
			t.Errorf("chunk %d: expected page %d, got %d", i, w.page, c.PageNum)
		}
		if c.URL != meta.URL {
			t.Errorf("chunk %d: expected document url, got %q", i, c.URL)
		}
		if c.Filetype != "md" {
			t.Errorf("chunk %d: expected filetype md, got %q", i, c.Filetype)
		}
	}
}

func TestAssemble_NoHeadings(t *testing.T) {
	pg := page.Build("plain.md", "just some text\nmore text\n", "md", page.Metadata{URL: "u"})
	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != "just some text\nmore text" {
		t.Errorf("unexpected text %q", c.Text)
	}
	if c.HeadingPath == nil || len(c.HeadingPath) != 0 {
		t.Errorf("expected empty non-nil heading path, got %#v", c.HeadingPath)
	}
	if c.PageNum != 1 {
		t.Errorf("expected page 1, got %d", c.PageNum)
	}
}

func TestAssemble_OwnTextBeforeChildren(t *testing.T) {
	text := strings.Join([]string{
		"# Chapter",
		"chapter intro",
		"## Section",
		"section body",
	}, "\n")
	pg := page.Build("doc.md", text, "md", page.Metadata{URL: "u"})
	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "chapter intro" {
		t.Errorf("expected a section's prose before its subsections, got %q first", chunks[0].Text)
	}
	if chunks[1].Text != "section body" {
		t.Errorf("expected subsection second, got %q", chunks[1].Text)
	}
}

func TestAssemble_SyntheticSegmentInPath(t *testing.T) {
	text := "# Top\n### Deep\ncontent\n"
	pg := page.Build("doc.md", text, "md", page.Metadata{URL: "u"})
	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := []string{"Top", "", "Deep"}
	if !reflect.DeepEqual(chunks[0].HeadingPath, want) {
		t.Errorf("expected path %v with empty synthetic entry, got %v", want, chunks[0].HeadingPath)
	}
}

func TestAssemble_PerPageURLTable(t *testing.T) {
	text := "# A\none\n# B\ntwo\n"
	meta := page.Metadata{
		URL: "https://example.com/doc",
		PageLineMap: []page.PageBreak{
			{Line: 1, Page: 1},
			{Line: 3, Page: 2},
		},
		PageURLs: map[int]string{2: "https://example.com/doc?p=2"},
	}
	pg := page.Build("doc.md", text, "md", meta)
	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].URL != "https://example.com/doc" {
		t.Errorf("expected document url for page 1, got %q", chunks[0].URL)
	}
	if chunks[1].URL != "https://example.com/doc?p=2" {
		t.Errorf("expected per-page url for page 2, got %q", chunks[1].URL)
	}
}

func TestAssemble_CompletenessAndOrder(t *testing.T) {
	text := "intro\n# A\na\n## B\nb\n### C\nc\n# D\nd\n"
	pg := page.Build("doc.md", text, "md", page.Metadata{URL: "u"})
	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	want := []string{"intro", "a", "b", "c", "d"}
	if !reflect.DeepEqual(texts, want) {
		t.Errorf("expected chunk order %v, got %v", want, texts)
	}
}

func TestAssemble_PathsAreIsolated(t *testing.T) {
	text := "# A\na\n## B\nb\n## C\nc\n"
	pg := page.Build("doc.md", text, "md", page.Metadata{URL: "u"})
	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	// Mutating one chunk's path must not affect its siblings.
	chunks[1].HeadingPath[0] = "mutated"
	if chunks[2].HeadingPath[0] != "A" {
		t.Errorf("expected sibling path untouched, got %q", chunks[2].HeadingPath[0])
	}
}

func TestAssemble_PageNumbersNonDecreasing(t *testing.T) {
	text := "# A\na\n## B\nb\n# C\nc\n## D\nd\n"
	meta := page.Metadata{
		URL: "u",
		PageLineMap: []page.PageBreak{
			{Line: 1, Page: 1},
			{Line: 4, Page: 2},
			{Line: 7, Page: 3},
		},
	}
	pg := page.Build("doc.md", text, "md", meta)
	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].PageNum < chunks[i-1].PageNum {
			t.Errorf("chunk %d: page %d went backwards from %d",
				i, chunks[i].PageNum, chunks[i-1].PageNum)
		}
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	pg := page.Build("doc.md", "# A\ntext\n## B\nmore\n", "md", page.Metadata{URL: "u"})
	first, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected repeated assembly to produce identical chunks")
	}
}

func TestAssemble_BlankSegmentEmitsNoChunk(t *testing.T) {
	text := "# Empty\n# Full\nbody\n"
	pg := page.Build("doc.md", text, "md", page.Metadata{URL: "u"})
	chunks, err := Assemble(pg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "body" {
		t.Errorf("expected only the non-empty segment, got %q", chunks[0].Text)
	}
}
