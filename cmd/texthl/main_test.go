package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPage = `<html><head><title>T</title></head><body><p>The quick brown fox jumps over the lazy dog.</p></body></html>`

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestAnnotateCmd_Run(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "page.html", testPage)
	out := filepath.Join(dir, "annotated.html")

	cmd := &AnnotateCmd{
		Path:        in,
		StartPath:   "0:0",
		StartOffset: 4,
		EndPath:     "0:0",
		EndOffset:   9,
		Out:         out,
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := readFile(t, out)
	if !strings.Contains(got, `data-highlighted="true"`) {
		t.Errorf("output missing marker: %q", got)
	}
	if !strings.Contains(got, ">quick</span>") {
		t.Errorf("output missing wrapped text: %q", got)
	}
}

func TestAnnotateCmd_XPathEndpoints(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "page.html", testPage)
	out := filepath.Join(dir, "annotated.html")

	cmd := &AnnotateCmd{
		Path:        in,
		StartXPath:  "//p/text()",
		StartOffset: 10,
		EndXPath:    "//p/text()",
		EndOffset:   15,
		Out:         out,
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readFile(t, out); !strings.Contains(got, ">brown</span>") {
		t.Errorf("output missing wrapped text: %q", got)
	}
}

func TestAnnotateCmd_BadRanges(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "page.html", testPage)

	tests := []struct {
		name string
		cmd  *AnnotateCmd
	}{
		{"collapsed range", &AnnotateCmd{Path: in, StartPath: "0:0", StartOffset: 4, EndPath: "0:0", EndOffset: 4}},
		{"path out of range", &AnnotateCmd{Path: in, StartPath: "9:9", StartOffset: 0, EndPath: "0:0", EndOffset: 5}},
		{"no addressing", &AnnotateCmd{Path: in, StartOffset: 0, EndOffset: 5}},
	}
	for _, tt := range tests {
		tt.cmd.Out = filepath.Join(t.TempDir(), "out.html")
		if err := tt.cmd.Run(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestFindCmd_Run(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "page.html",
		`<html><head></head><body><p>cat dog cat</p></body></html>`)
	out := filepath.Join(dir, "annotated.html")

	cmd := &FindCmd{Path: in, Text: "cat", Out: out}
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := readFile(t, out)
	if n := strings.Count(got, "data-highlighted"); n != 2 {
		t.Errorf("expected 2 markers, got %d in %q", n, got)
	}
}

func TestRemoveCmd_Run(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "page.html", testPage)
	annotated := filepath.Join(dir, "annotated.html")
	cleaned := filepath.Join(dir, "cleaned.html")

	annotate := &AnnotateCmd{
		Path: in, StartPath: "0:0", StartOffset: 4, EndPath: "0:0", EndOffset: 9, Out: annotated,
	}
	if err := annotate.Run(); err != nil {
		t.Fatalf("annotate: %v", err)
	}

	remove := &RemoveCmd{Path: annotated, Out: cleaned}
	if err := remove.Run(); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got := readFile(t, cleaned)
	if strings.Contains(got, "data-highlighted") {
		t.Errorf("marker survived removal: %q", got)
	}
	if !strings.Contains(got, "The quick brown fox") {
		t.Errorf("text damaged by removal: %q", got)
	}
}

func TestExportImportCmd_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "page.html", testPage)
	annotated := filepath.Join(dir, "annotated.html")
	payload := filepath.Join(dir, "highlights.json")
	restored := filepath.Join(dir, "restored.html")

	annotate := &AnnotateCmd{
		Path: in, StartPath: "0:0", StartOffset: 4, EndPath: "0:0", EndOffset: 9, Out: annotated,
	}
	if err := annotate.Run(); err != nil {
		t.Fatalf("annotate: %v", err)
	}

	export := &ExportCmd{Path: annotated, Out: payload}
	if err := export.Run(); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := readFile(t, payload); !strings.Contains(got, "quick") {
		t.Fatalf("payload missing highlight text: %q", got)
	}

	restore := &ImportCmd{Path: in, Payload: payload, Out: restored}
	if err := restore.Run(); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := readFile(t, restored); !strings.Contains(got, ">quick</span>") {
		t.Errorf("restored output missing marker: %q", got)
	}
}

func TestRenderCmd_Markdown(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "notes.md", "# Notes\n\nBody text.")
	out := filepath.Join(dir, "notes.html")

	cmd := &RenderCmd{Path: in, Out: out}
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := readFile(t, out)
	if !strings.Contains(got, "<h1>Notes</h1>") {
		t.Errorf("output missing heading: %q", got)
	}
	if !strings.Contains(got, "<title>notes</title>") {
		t.Errorf("output missing title: %q", got)
	}
}

func TestRenderCmd_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "binary.exe", "MZ")

	cmd := &RenderCmd{Path: in, Out: filepath.Join(dir, "out.html")}
	if err := cmd.Run(); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
