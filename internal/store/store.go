// Package store persists ingested documents and their highlight payloads
// in SQLite. Document HTML is xz-compressed at rest.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"
	_ "modernc.org/sqlite"
)

// Document is one ingested document. HTML is the full annotatable markup;
// list queries leave it empty.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	HTML        string    `json:"html,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single pooled connection avoids busy
	// errors under concurrent workers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	filename     TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	html         BLOB NOT NULL,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
CREATE TABLE IF NOT EXISTS highlight_sets (
	doc_id     TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// PutDocument inserts or replaces a document.
func (s *Store) PutDocument(ctx context.Context, doc *Document) error {
	blob, err := compress([]byte(doc.HTML))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO documents (id, title, filename, content_hash, html, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	filename = excluded.filename,
	content_hash = excluded.content_hash,
	html = excluded.html,
	updated_at = excluded.updated_at`,
		doc.ID, doc.Title, doc.Filename, doc.ContentHash, blob,
		doc.CreatedAt.UnixMilli(), doc.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("put document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument loads a document, HTML included. Returns ErrNotFound for an
// unknown ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, filename, content_hash, html, created_at, updated_at
FROM documents WHERE id = ?`, id)

	var doc Document
	var blob []byte
	var created, updated int64
	err := row.Scan(&doc.ID, &doc.Title, &doc.Filename, &doc.ContentHash, &blob, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	html, err := decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	doc.HTML = string(html)
	doc.CreatedAt = time.UnixMilli(created)
	doc.UpdatedAt = time.UnixMilli(updated)
	return &doc, nil
}

// ListDocuments returns document metadata without the stored HTML, newest
// first.
func (s *Store) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, filename, content_hash, created_at, updated_at
FROM documents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var doc Document
		var created, updated int64
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Filename, &doc.ContentHash, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.CreatedAt = time.UnixMilli(created)
		doc.UpdatedAt = time.UnixMilli(updated)
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// DeleteDocument removes a document and, via cascade, its highlights.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete document %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindByHash returns the ID of a document with the given content hash, or
// "" when none exists.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id FROM documents WHERE content_hash = ? LIMIT 1`, hash)
	var id string
	err := row.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find by hash: %w", err)
	}
	return id, nil
}

// SaveHighlights stores the serialized highlight payload for a document.
func (s *Store) SaveHighlights(ctx context.Context, docID, payload string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO highlight_sets (doc_id, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(doc_id) DO UPDATE SET
	payload = excluded.payload,
	updated_at = excluded.updated_at`,
		docID, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save highlights %s: %w", docID, err)
	}
	return nil
}

// GetHighlights returns the stored highlight payload for a document, or
// "" when none has been saved.
func (s *Store) GetHighlights(ctx context.Context, docID string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM highlight_sets WHERE doc_id = ?`, docID)
	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get highlights %s: %w", docID, err)
	}
	return payload, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}
