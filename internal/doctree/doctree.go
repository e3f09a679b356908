// Package doctree builds an ordered hierarchical tree of structural
// segments from markdown-shaped text, keyed by heading depth, and
// defines the flattened chunk record emitted from it.
//
// The tree is an arena: nodes live in a single slice and refer to each
// other by index. That keeps the structure free of pointer cycles and
// makes it trivial to serialize in tests.
package doctree

import (
	"strings"

	"github.com/jfarrand/coursechunk/internal/cverr"
)

// Node is one structural segment. Title is empty for synthetic nodes
// (the depth-0 root and any intermediates inserted to fill a heading
// depth skip). StartLine is the heading line (or line 1 for the root),
// EndLine the last line of the segment's range, both 1-based and
// inclusive. TextLine is the first line contributing to Text, 0 when
// the segment has no own text.
type Node struct {
	Title     string
	Depth     int
	StartLine int
	EndLine   int
	TextLine  int
	Text      string
	Parent    int // index into Tree.Nodes, -1 for the root
	Children  []int
}

// Tree is the immutable segment tree of one document. Nodes[0] is the
// synthetic depth-0 root spanning the full document.
type Tree struct {
	Nodes []Node
}

// Root returns the root node.
func (t *Tree) Root() *Node { return &t.Nodes[0] }

// Chunk is a flattened retrieval unit. HeadingPath holds ancestor titles
// root-to-leaf, excluding the synthetic root but including empty-titled
// synthetic intermediates, so its length equals the source segment's
// depth.
type Chunk struct {
	Text        string   `json:"text"`
	HeadingPath []string `json:"heading_path"`
	PageNum     int      `json:"page_num"`
	URL         string   `json:"url"`
	Filetype    string   `json:"source_filetype"`
}

// builder accumulates nodes during the single left-to-right line scan.
type builder struct {
	nodes []Node
	lines [][]string // pending own-text lines, parallel to nodes
	stack []int      // indices of currently-open segments
}

func newBuilder() *builder {
	b := &builder{}
	b.nodes = append(b.nodes, Node{Depth: 0, StartLine: 1, Parent: -1})
	b.lines = append(b.lines, nil)
	b.stack = []int{0}
	return b
}

func (b *builder) top() int { return b.stack[len(b.stack)-1] }

// open appends a new segment as a child of the current stack top.
func (b *builder) open(title string, depth, line int) {
	parent := b.top()
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		Title:     title,
		Depth:     depth,
		StartLine: line,
		Parent:    parent,
	})
	b.lines = append(b.lines, nil)
	b.nodes[parent].Children = append(b.nodes[parent].Children, idx)
	b.stack = append(b.stack, idx)
}

// closeTo pops open segments with depth >= depth, sealing their ranges.
func (b *builder) closeTo(depth, endLine int) {
	for len(b.stack) > 1 && b.nodes[b.top()].Depth >= depth {
		b.nodes[b.top()].EndLine = endLine
		b.stack = b.stack[:len(b.stack)-1]
	}
}

func (b *builder) appendText(line string, lineNum int) {
	idx := b.top()
	b.lines[idx] = append(b.lines[idx], line)
	if b.nodes[idx].TextLine == 0 && strings.TrimSpace(line) != "" {
		b.nodes[idx].TextLine = lineNum
	}
}

// Build scans text line by line and produces the segment tree. A heading
// line is a run of '#' followed by a space; the run length is the depth.
// Heading markers inside fenced code blocks are ignored. When a heading
// skips depth (e.g. # directly to ###), synthetic empty-titled segments
// fill the gap so a child's depth always exceeds its parent's by one.
func Build(text string) (*Tree, error) {
	lines := splitLines(text)
	b := newBuilder()
	inFence := false

	for i, line := range lines {
		lineNum := i + 1
		stripped := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(stripped, "```") {
			inFence = !inFence
			b.appendText(line, lineNum)
			continue
		}
		if inFence {
			b.appendText(line, lineNum)
			continue
		}
		depth, title, ok := headingLine(line)
		if !ok {
			b.appendText(line, lineNum)
			continue
		}

		b.closeTo(depth, lineNum-1)
		topDepth := b.nodes[b.top()].Depth
		if depth <= topDepth {
			// closeTo leaves the top strictly shallower than the new
			// heading unless the stack underflowed.
			return nil, cverr.New(cverr.KindSegmentation,
				"line %d: open segment depth %d not below heading depth %d", lineNum, topDepth, depth)
		}
		for d := topDepth + 1; d < depth; d++ {
			b.open("", d, lineNum)
		}
		b.open(title, depth, lineNum)
	}

	// Close every open segment at the final line.
	last := len(lines)
	if last == 0 {
		last = 1
	}
	for len(b.stack) > 0 {
		b.nodes[b.top()].EndLine = last
		b.stack = b.stack[:len(b.stack)-1]
	}

	for i := range b.nodes {
		b.nodes[i].Text = joinText(b.lines[i])
		if b.nodes[i].Text == "" {
			b.nodes[i].TextLine = 0
		}
	}
	return &Tree{Nodes: b.nodes}, nil
}

// headingLine reports whether a line is a heading marker, returning its
// depth (the length of the leading '#' run) and title.
func headingLine(line string) (int, string, bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) {
		return 0, "", false
	}
	if line[n] != ' ' && line[n] != '\t' {
		return 0, "", false
	}
	return n, strings.TrimSpace(line[n:]), true
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// joinText joins accumulated own-text lines, trimming the blank padding
// that surrounds headings. Interior blank lines are preserved.
func joinText(lines []string) string {
	return strings.Trim(strings.Join(lines, "\n"), " \t\n")
}
