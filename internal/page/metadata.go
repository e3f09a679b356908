package page

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jfarrand/coursechunk/internal/cverr"
)

// PageBreak maps a 1-based line number to the page that starts there.
type PageBreak struct {
	Line int `yaml:"line" json:"line"`
	Page int `yaml:"page" json:"page"`
}

// Metadata is the sidecar descriptor accompanying a source file. URL is
// required (an empty string is allowed, but the key must be present in
// the descriptor). PageLineMap may be empty, in which case every line
// resolves to page 1. PageURLs optionally maps a page number to its own
// URL for documents where each page has a distinct link.
type Metadata struct {
	URL         string         `yaml:"url" json:"url"`
	PageLineMap []PageBreak    `yaml:"page_line_map" json:"page_line_map,omitempty"`
	PageURLs    map[int]string `yaml:"page_urls" json:"page_urls,omitempty"`
}

// metadataDoc mirrors Metadata with a pointer URL so a missing url key
// can be told apart from an explicit empty one. The uppercase URL key is
// accepted for descriptors produced by older OCR tooling.
type metadataDoc struct {
	URL         *string        `yaml:"url"`
	URLUpper    *string        `yaml:"URL"`
	PageLineMap []PageBreak    `yaml:"page_line_map"`
	PageURLs    map[int]string `yaml:"page_urls"`
}

// LoadMetadata reads and validates a sidecar descriptor file.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, cverr.New(cverr.KindMetadata, "read descriptor %s: %v", path, err)
	}
	return ParseMetadata(data)
}

// ParseMetadata validates a descriptor already in memory.
func ParseMetadata(data []byte) (Metadata, error) {
	var doc metadataDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, cverr.New(cverr.KindMetadata, "parse descriptor: %v", err)
	}

	url := doc.URL
	if url == nil {
		url = doc.URLUpper
	}
	if url == nil {
		return Metadata{}, cverr.New(cverr.KindMetadata, "descriptor is missing the url key")
	}

	meta := Metadata{
		URL:         *url,
		PageLineMap: doc.PageLineMap,
		PageURLs:    doc.PageURLs,
	}
	for i := 1; i < len(meta.PageLineMap); i++ {
		if meta.PageLineMap[i].Line <= meta.PageLineMap[i-1].Line {
			return Metadata{}, cverr.New(cverr.KindMetadata,
				"page_line_map is not ascending at entry %d (line %d)", i, meta.PageLineMap[i].Line)
		}
	}
	return meta, nil
}

// PageForLine resolves the page containing a 1-based line number: the
// greatest map entry whose line is <= line, or page 1 when the map is
// empty or no entry qualifies.
func (m Metadata) PageForLine(line int) int {
	if len(m.PageLineMap) == 0 {
		return 1
	}
	// First entry with Line > line; the one before it is the match.
	i := sort.Search(len(m.PageLineMap), func(i int) bool {
		return m.PageLineMap[i].Line > line
	})
	if i == 0 {
		return 1
	}
	return m.PageLineMap[i-1].Page
}

// URLForPage resolves the URL for a page: the per-page table entry when
// one exists, otherwise the document URL.
func (m Metadata) URLForPage(pageNum int) string {
	if u, ok := m.PageURLs[pageNum]; ok {
		return u
	}
	return m.URL
}
