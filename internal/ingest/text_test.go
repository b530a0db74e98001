package ingest

import (
	"strings"
	"testing"

	"github.com/Brakebein/texthighlighter/dom"
)

func paragraphElements(t *testing.T, doc *dom.Document) []string {
	t.Helper()
	nodes, err := dom.QueryAll(doc.Body(), "//p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = dom.TextContent(n)
	}
	return texts
}

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	got := paragraphElements(t, doc)
	if len(got) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(got))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("paragraph %d: expected %q, got %q", i, w, got[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if got := paragraphElements(t, doc); len(got) != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", len(got))
	}
}

func TestTextParser_SingleLine(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("Hello world"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := paragraphElements(t, doc)
	if len(got) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(got))
	}
	if got[0] != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got[0])
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := paragraphElements(t, doc); len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(got))
	}
}

func TestTextParser_EscapesMarkup(t *testing.T) {
	input := "a < b & c > d"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "math.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := paragraphElements(t, doc)
	if len(got) != 1 || got[0] != "a < b & c > d" {
		t.Errorf("expected the raw text preserved, got %v", got)
	}
}
