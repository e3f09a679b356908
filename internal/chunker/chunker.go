// Package chunker flattens a segment tree into the ordered chunk
// sequence handed to the downstream index.
package chunker

import (
	"github.com/jfarrand/coursechunk/internal/doctree"
	"github.com/jfarrand/coursechunk/internal/page"
)

// Assemble walks the page's segment tree in pre-order and emits one
// chunk per segment with own text, before descending into the segment's
// children, so a section's prose always precedes its subsections.
// Segments without own text contribute only their title to descendant
// heading paths. Page numbers resolve from the metadata's page/line map
// anchored at the segment's first own-text line; URLs resolve through
// the per-page URL table when the descriptor carries one.
func Assemble(pg *page.Page) ([]doctree.Chunk, error) {
	tree, err := pg.Segment()
	if err != nil {
		return nil, err
	}

	var chunks []doctree.Chunk
	var walk func(idx int, path []string)
	walk = func(idx int, path []string) {
		node := &tree.Nodes[idx]
		if idx != 0 {
			path = append(path, node.Title)
		}
		if node.Text != "" {
			anchor := node.TextLine
			if anchor == 0 {
				anchor = node.StartLine
			}
			pageNum := pg.Meta.PageForLine(anchor)
			chunks = append(chunks, doctree.Chunk{
				Text:        node.Text,
				HeadingPath: copyPath(path),
				PageNum:     pageNum,
				URL:         pg.Meta.URLForPage(pageNum),
				Filetype:    pg.Filetype,
			})
		}
		for _, child := range node.Children {
			walk(child, path)
		}
	}
	walk(0, nil)
	return chunks, nil
}

func copyPath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}
