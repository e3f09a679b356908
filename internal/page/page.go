// Package page holds the canonical in-memory form of one source
// document: its normalized text plus the provenance metadata from its
// sidecar descriptor.
package page

import (
	"github.com/jfarrand/coursechunk/internal/doctree"
)

// Page wraps a document's normalized text and metadata, pre-segmentation.
// It is immutable once built; the segment tree is the only derived field
// and is populated exactly once by Segment.
type Page struct {
	Name     string
	RawText  string
	Filetype string
	Meta     Metadata

	tree *doctree.Tree
}

// Build constructs a Page. It performs no I/O and does not inspect the
// text: RawText is exactly the normalized text handed in.
func Build(name, text, filetype string, meta Metadata) *Page {
	return &Page{
		Name:     name,
		RawText:  text,
		Filetype: filetype,
		Meta:     meta,
	}
}

// URL returns the document-level URL from the descriptor.
func (p *Page) URL() string { return p.Meta.URL }

// Segment builds the segment tree from RawText. The tree is built on the
// first call and reused afterwards; a Page is only ever segmented once.
func (p *Page) Segment() (*doctree.Tree, error) {
	if p.tree != nil {
		return p.tree, nil
	}
	tree, err := doctree.Build(p.RawText)
	if err != nil {
		return nil, err
	}
	p.tree = tree
	return tree, nil
}
