// Package converter maps each source file type to the adapter that
// normalizes it into markdown-shaped text and runs the shared
// segmentation and chunk-assembly pipeline on the result.
package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jfarrand/coursechunk/internal/doctree"
	"github.com/jfarrand/coursechunk/internal/page"
)

// Input is one file to convert: its payload plus the validated sidecar
// metadata. PDFPath optionally points at the original PDF for
// OCR-derived markdown so missing-page markers can be patched.
type Input struct {
	Name    string
	Data    []byte
	Meta    page.Metadata
	PDFPath string
}

// Converter normalizes one file type into chunks.
type Converter interface {
	Convert(ctx context.Context, in Input) ([]doctree.Chunk, error)
}

// Registry is the closed dispatch table from file extension to
// converter, built once at startup and read-only afterwards.
type Registry struct {
	byExt map[string]Converter
}

// codeLanguages maps source file extensions to fence language tags.
var codeLanguages = map[string]string{
	".py":   "python",
	".go":   "go",
	".c":    "c",
	".h":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".java": "java",
	".js":   "javascript",
	".ts":   "typescript",
	".rb":   "ruby",
	".rs":   "rust",
	".sh":   "bash",
	".sql":  "sql",
	".scm":  "scheme",
}

// NewRegistry wires the closed variant set. It fails if any declared
// extension resolves to a nil adapter; that is a configuration error
// the batch layer must treat as fatal before processing any file.
func NewRegistry() (*Registry, error) {
	r := &Registry{byExt: map[string]Converter{}}

	markdown := &MarkdownConverter{}
	ocr := &OCRConverter{}
	transcript := &TranscriptConverter{}

	r.byExt[".md"] = markdown
	r.byExt[".markdown"] = markdown
	r.byExt[".mmd"] = ocr
	r.byExt[".json"] = transcript
	for ext, lang := range codeLanguages {
		r.byExt[ext] = &CodeConverter{Language: lang}
	}

	for ext, conv := range r.byExt {
		if conv == nil {
			return nil, fmt.Errorf("no converter registered for %s", ext)
		}
	}
	return r, nil
}

// ForFile returns the converter for a filename, or an error when the
// extension has no registered adapter.
func (r *Registry) ForFile(filename string) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	conv, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
	return conv, nil
}

// Supported reports whether a filename has a registered adapter.
func (r *Registry) Supported(filename string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// stem strips the extension from a filename.
func stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
