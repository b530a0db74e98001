package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "texthl.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDocument(id string) *Document {
	now := time.UnixMilli(time.Now().UnixMilli())
	return &Document{
		ID:          id,
		Title:       "Sample",
		Filename:    "sample.md",
		ContentHash: "hash-" + id,
		HTML:        "<html><head><title>Sample</title></head><body><p>The quick brown fox.</p></body></html>",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestPutGetDocument_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := sampleDocument("doc-1")
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.HTML != doc.HTML {
		t.Errorf("html = %q, want %q", got.HTML, doc.HTML)
	}
	if got.Title != doc.Title || got.Filename != doc.Filename || got.ContentHash != doc.ContentHash {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) || !got.UpdatedAt.Equal(doc.UpdatedAt) {
		t.Errorf("timestamps = %v/%v, want %v/%v", got.CreatedAt, got.UpdatedAt, doc.CreatedAt, doc.UpdatedAt)
	}
}

func TestPutDocument_UpsertReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := sampleDocument("doc-1")
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatalf("put: %v", err)
	}

	doc.Title = "Revised"
	doc.HTML = "<html><head></head><body><p>Changed.</p></body></html>"
	doc.UpdatedAt = doc.UpdatedAt.Add(time.Second)
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatalf("put again: %v", err)
	}

	got, err := s.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Revised" {
		t.Errorf("title = %q, want Revised", got.Title)
	}
	if !strings.Contains(got.HTML, "Changed.") {
		t.Errorf("html not replaced: %q", got.HTML)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("got %d documents after upsert, want 1", len(docs))
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetDocument(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListDocuments_NewestFirstWithoutHTML(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := sampleDocument("doc-old")
	older.CreatedAt = time.UnixMilli(1000)
	older.UpdatedAt = older.CreatedAt
	newer := sampleDocument("doc-new")
	newer.CreatedAt = time.UnixMilli(2000)
	newer.UpdatedAt = newer.CreatedAt
	for _, doc := range []*Document{older, newer} {
		if err := s.PutDocument(ctx, doc); err != nil {
			t.Fatalf("put %s: %v", doc.ID, err)
		}
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != "doc-new" || docs[1].ID != "doc-old" {
		t.Errorf("order = [%s, %s], want [doc-new, doc-old]", docs[0].ID, docs[1].ID)
	}
	for _, doc := range docs {
		if doc.HTML != "" {
			t.Errorf("list returned html for %s", doc.ID)
		}
	}
}

func TestCountDocuments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("count empty: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	if err := s.PutDocument(ctx, sampleDocument("doc-1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	n, err = s.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutDocument(ctx, sampleDocument("doc-1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetDocument(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteDocument(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestFindByHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := sampleDocument("doc-1")
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatalf("put: %v", err)
	}

	id, err := s.FindByHash(ctx, doc.ContentHash)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if id != "doc-1" {
		t.Errorf("id = %q, want doc-1", id)
	}

	id, err = s.FindByHash(ctx, "no-such-hash")
	if err != nil {
		t.Fatalf("find miss: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}

func TestHighlights_SaveGetOverwrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutDocument(ctx, sampleDocument("doc-1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	payload, err := s.GetHighlights(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if payload != "" {
		t.Errorf("payload = %q, want empty before save", payload)
	}

	first := `[["<span>a</span>","a","0:0",0,1]]`
	if err := s.SaveHighlights(ctx, "doc-1", first); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload, err = s.GetHighlights(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if payload != first {
		t.Errorf("payload = %q, want %q", payload, first)
	}

	second := `[]`
	if err := s.SaveHighlights(ctx, "doc-1", second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	payload, err = s.GetHighlights(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if payload != second {
		t.Errorf("payload = %q, want %q", payload, second)
	}
}

func TestDeleteDocument_CascadesHighlights(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutDocument(ctx, sampleDocument("doc-1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.SaveHighlights(ctx, "doc-1", `[]`); err != nil {
		t.Fatalf("save highlights: %v", err)
	}
	if err := s.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM highlight_sets`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("highlight_sets rows after delete = %d, want 0", n)
	}
}

func TestCompress_RoundTrip(t *testing.T) {
	original := []byte(strings.Repeat("<p>The quick brown fox jumps over the lazy dog.</p>\n", 200))

	packed, err := compress(original)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(packed) >= len(original) {
		t.Errorf("compressed size %d not smaller than original %d", len(packed), len(original))
	}

	restored, err := decompress(packed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(restored) != string(original) {
		t.Errorf("round trip mismatch")
	}
}
