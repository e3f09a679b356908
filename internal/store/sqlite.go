package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jfarrand/coursechunk/internal/cverr"
	"github.com/jfarrand/coursechunk/internal/doctree"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS file (
    uuid        TEXT PRIMARY KEY,
    file_name   TEXT NOT NULL,
    filetype    TEXT NOT NULL DEFAULT '',
    url         TEXT NOT NULL DEFAULT '',
    chunk_count INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chunk (
    file_uuid    TEXT NOT NULL,
    idx          INTEGER NOT NULL,
    text         TEXT NOT NULL,
    heading_path TEXT NOT NULL DEFAULT '[]',
    page_num     INTEGER NOT NULL DEFAULT 1,
    url          TEXT NOT NULL DEFAULT '',
    filetype     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (file_uuid, idx)
);
`

// DB is the chunk database handed to the indexing stage.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the chunk database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// SaveChunks replaces a file's chunk rows in one transaction, so a
// reader never observes a partially written chunk list.
func (d *DB) SaveChunks(ctx context.Context, fileID, fileName, filetype, url string, chunks []doctree.Chunk) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return cverr.New(cverr.KindWrite, "begin tx: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunk WHERE file_uuid = ?`, fileID); err != nil {
		return cverr.New(cverr.KindWrite, "clear chunks: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO file (uuid, file_name, filetype, url, chunk_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			file_name = excluded.file_name,
			filetype = excluded.filetype,
			url = excluded.url,
			chunk_count = excluded.chunk_count`,
		fileID, fileName, filetype, url, len(chunks), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return cverr.New(cverr.KindWrite, "insert file row: %v", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunk (file_uuid, idx, text, heading_path, page_num, url, filetype)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return cverr.New(cverr.KindWrite, "prepare insert: %v", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		path, err := json.Marshal(c.HeadingPath)
		if err != nil {
			return cverr.New(cverr.KindWrite, "encode heading path: %v", err)
		}
		if _, err := stmt.ExecContext(ctx, fileID, i, c.Text, string(path), c.PageNum, c.URL, c.Filetype); err != nil {
			return cverr.New(cverr.KindWrite, "insert chunk %d: %v", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return cverr.New(cverr.KindWrite, "commit: %v", err)
	}
	return nil
}

// CountChunks returns the number of chunk rows stored for a file.
func (d *DB) CountChunks(ctx context.Context, fileID string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunk WHERE file_uuid = ?`, fileID).Scan(&n)
	return n, err
}
