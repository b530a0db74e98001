package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// CSVParser renders CSV rows as an HTML table. The first row becomes the
// header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*dom.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var body strings.Builder
	body.WriteString("<table>")
	if len(records) > 0 {
		body.WriteString("<thead><tr>")
		for _, cell := range records[0] {
			body.WriteString("<th>")
			body.WriteString(html.EscapeString(cell))
			body.WriteString("</th>")
		}
		body.WriteString("</tr></thead><tbody>")
		for _, row := range records[1:] {
			body.WriteString("<tr>")
			for _, cell := range row {
				body.WriteString("<td>")
				body.WriteString(html.EscapeString(cell))
				body.WriteString("</td>")
			}
			body.WriteString("</tr>")
		}
		body.WriteString("</tbody>")
	}
	body.WriteString("</table>")
	return buildDocument(stem(filename), body.String())
}
