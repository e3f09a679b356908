package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jfarrand/coursechunk/internal/chunker"
	"github.com/jfarrand/coursechunk/internal/doctree"
	"github.com/jfarrand/coursechunk/internal/page"
)

// CodeConverter handles source files by wrapping the whole file in a
// titled fenced block, so the filename becomes the single heading and
// comment markers inside the code never segment the document.
type CodeConverter struct {
	Language string
}

func (c *CodeConverter) Convert(ctx context.Context, in Input) ([]doctree.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := strings.TrimRight(string(in.Data), "\n")
	normalized := fmt.Sprintf("# %s\n\n```%s\n%s\n```\n", in.Name, c.Language, content)

	filetype := strings.TrimPrefix(filepath.Ext(in.Name), ".")
	if filetype == "" {
		filetype = "code"
	}
	pg := page.Build(stem(in.Name), normalized, filetype, in.Meta)
	return chunker.Assemble(pg)
}
