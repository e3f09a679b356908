// Package store persists assembled chunks: a per-file JSON dump for
// inspection and hand-off, and a SQLite database the indexing stage
// reads. Writes are atomic per file so concurrent conversions never
// interleave output.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jfarrand/coursechunk/internal/cverr"
	"github.com/jfarrand/coursechunk/internal/doctree"
)

// WriteChunksJSON writes a document's chunk sequence to
// <dir>/<name>.chunks.json using write-to-temp-then-rename, returning
// the final path. A failed write leaves no partial file behind.
func WriteChunksJSON(dir, name string, chunks []doctree.Chunk) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", cverr.New(cverr.KindWrite, "create output dir %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return "", cverr.New(cverr.KindWrite, "create temp output: %v", err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chunks); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", cverr.New(cverr.KindWrite, "encode chunks: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", cverr.New(cverr.KindWrite, "close temp output: %v", err)
	}

	final := filepath.Join(dir, name+".chunks.json")
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", cverr.New(cverr.KindWrite, "move output into place: %v", err)
	}
	return final, nil
}
