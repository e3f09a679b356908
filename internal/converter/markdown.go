package converter

import (
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/jfarrand/coursechunk/internal/chunker"
	"github.com/jfarrand/coursechunk/internal/doctree"
	"github.com/jfarrand/coursechunk/internal/page"
)

// MarkdownConverter handles markdown files. The text is already in the
// pipeline's canonical shape, so normalization is a pass-through; the
// document title comes from the first top-level heading when one exists.
type MarkdownConverter struct{}

func (c *MarkdownConverter) Convert(ctx context.Context, in Input) ([]doctree.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := stem(in.Name)
	if title := documentTitle(in.Data); title != "" {
		name = title
	}
	pg := page.Build(name, string(in.Data), "md", in.Meta)
	return chunker.Assemble(pg)
}

// documentTitle extracts the first level-1 heading via the goldmark AST.
func documentTitle(src []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			return string(h.Text(src))
		}
	}
	return ""
}
