package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// Parser converts raw document bytes into an annotatable HTML document.
type Parser interface {
	Parse(r io.Reader, filename string) (*dom.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// stem strips the extension off a filename for use as a fallback title.
func stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// buildDocument wraps converted body markup in a full HTML document and
// parses it into the tree the highlighter operates on.
func buildDocument(title, body string) (*dom.Document, error) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>")
	b.WriteString(body)
	b.WriteString("</body></html>")
	doc, err := dom.ParseDocument(strings.NewReader(b.String()))
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}
	return doc, nil
}
