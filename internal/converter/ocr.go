package converter

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/jfarrand/coursechunk/internal/chunker"
	"github.com/jfarrand/coursechunk/internal/doctree"
	"github.com/jfarrand/coursechunk/internal/page"
)

// OCRConverter consumes the markdown an external PDF OCR tool produced,
// along with its descriptor. The tool leaves [MISSING_PAGE...:<n>]
// markers for pages it could not read; when the original PDF is
// available those markers are patched with plain text extracted from
// the PDF page, and any inline HTML tables the tool emitted are
// flattened to text rows. Both rewrites preserve the document's line
// count so the descriptor's page/line map stays valid.
type OCRConverter struct{}

var missingPageRe = regexp.MustCompile(`\[MISSING_PAGE[^\]\n]*:(\d+)\]`)

func (c *OCRConverter) Convert(ctx context.Context, in Input) ([]doctree.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := string(in.Data)
	if in.PDFPath != "" {
		text = patchMissingPages(text, in.PDFPath)
	} else {
		text = missingPageRe.ReplaceAllString(text, "")
	}
	text = flattenHTMLTables(text)

	name := stem(in.Name)
	if title := documentTitle([]byte(text)); title != "" {
		name = title
	}
	pg := page.Build(name, text, "pdf", in.Meta)
	return chunker.Assemble(pg)
}

// patchMissingPages replaces each missing-page marker with the plain
// text of that PDF page, collapsed onto the marker's line. Markers whose
// page cannot be extracted are stripped.
func patchMissingPages(text, pdfPath string) string {
	if !missingPageRe.MatchString(text) {
		return text
	}
	pages := extractPDFPages(pdfPath)
	return missingPageRe.ReplaceAllStringFunc(text, func(marker string) string {
		m := missingPageRe.FindStringSubmatch(marker)
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return ""
		}
		pageText, ok := pages[num]
		if !ok {
			return ""
		}
		// One line, so surrounding line numbers do not shift.
		return strings.Join(strings.Fields(pageText), " ")
	})
}

// extractPDFPages pulls plain text per page from a PDF. Extraction is
// best effort: unreadable pages are simply absent from the result.
func extractPDFPages(path string) map[int]string {
	pages := map[int]string{}
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return pages
	}
	defer f.Close()

	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			pages[i] = pageText
		}
	}
	return pages
}
