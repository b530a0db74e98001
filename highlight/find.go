package highlight

import (
	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// Finder is the search primitive the find loop drives: it yields
// successive occurrences of a query as selection ranges and can rewind to
// its initial position.
type Finder interface {
	Next(query string) (*dom.Range, bool)
	Reset()
}

// Find highlights every occurrence of text under the anchor and returns
// the markers created. Each occurrence becomes its own highlight group.
func (h *Highlighter) Find(text string, caseSensitive bool) []*html.Node {
	searcher := dom.NewTextSearcher(h.el, dom.SearchOptions{
		CaseSensitive: caseSensitive,
		Skip:          isIgnoredElement,
	})
	return h.FindWith(searcher, text)
}

// FindWith runs the find loop over a custom Finder. Each match is
// highlighted and normalized before the next search step; the finder is
// reset to its initial position once no further matches exist.
func (h *Highlighter) FindWith(f Finder, text string) []*html.Node {
	var marks []*html.Node
	for {
		r, ok := f.Next(text)
		if !ok {
			break
		}
		marks = append(marks, h.HighlightRange(r)...)
	}
	f.Reset()
	return marks
}
