package ingest

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// TextParser handles plain text files. Blank-line separated paragraphs
// become <p> elements.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*dom.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var body strings.Builder
	for _, para := range paragraphs {
		body.WriteString("<p>")
		body.WriteString(html.EscapeString(para))
		body.WriteString("</p>")
	}
	return buildDocument(stem(filename), body.String())
}
