package ingest

import (
	"fmt"
	"io"

	"github.com/Brakebein/texthighlighter/dom"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*dom.Document, error) {
	doc, err := dom.ParseDocument(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if doc.Title == "" {
		doc.Title = stem(filename)
	}
	return doc, nil
}
