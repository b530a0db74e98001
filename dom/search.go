package dom

import (
	"unicode"

	"golang.org/x/net/html"
)

// SearchOptions controls how a TextSearcher matches.
type SearchOptions struct {
	// CaseSensitive matches exact runes when true.
	CaseSensitive bool
	// Skip excludes an element's whole subtree from the searchable text.
	Skip func(*html.Node) bool
}

// TextSearcher locates occurrences of a query in the concatenated text of
// a subtree, across text-node boundaries. It keeps a cursor so repeated
// Next calls step through the document. The cursor is a rune position in
// the concatenated text, which keeps it stable while matched spans are
// wrapped in new elements between calls.
type TextSearcher struct {
	root   *html.Node
	opts   SearchOptions
	cursor int
}

// NewTextSearcher returns a searcher positioned at the start of root's
// text.
func NewTextSearcher(root *html.Node, opts SearchOptions) *TextSearcher {
	return &TextSearcher{root: root, opts: opts}
}

// Reset rewinds the cursor to the start of the document.
func (s *TextSearcher) Reset() {
	s.cursor = 0
}

type textSegment struct {
	node  *html.Node
	start int // rune position of the segment in the concatenated text
	runes []rune
}

// segments snapshots the searchable text nodes. Taken fresh on every Next
// call because the tree mutates between calls.
func (s *TextSearcher) segments() []textSegment {
	var segs []textSegment
	pos := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			runes := []rune(n.Data)
			if len(runes) > 0 {
				segs = append(segs, textSegment{node: n, start: pos, runes: runes})
				pos += len(runes)
			}
			return
		}
		if n.Type == html.ElementNode && s.opts.Skip != nil && s.opts.Skip(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(s.root)
	return segs
}

// Next finds the next occurrence of query at or after the cursor and
// returns it as a range between text-node positions. The cursor advances
// past the match. ok is false when no further occurrence exists.
func (s *TextSearcher) Next(query string) (*Range, bool) {
	q := []rune(query)
	if len(q) == 0 {
		return nil, false
	}
	if !s.opts.CaseSensitive {
		for i, r := range q {
			q[i] = unicode.ToLower(r)
		}
	}

	segs := s.segments()
	var text []rune
	for _, seg := range segs {
		text = append(text, seg.runes...)
	}

	for i := s.cursor; i+len(q) <= len(text); i++ {
		if s.matchAt(text, q, i) {
			s.cursor = i + len(q)
			return rangeFor(segs, i, i+len(q)), true
		}
	}
	s.cursor = len(text)
	return nil, false
}

func (s *TextSearcher) matchAt(text, q []rune, at int) bool {
	for j, qr := range q {
		tr := text[at+j]
		if !s.opts.CaseSensitive {
			tr = unicode.ToLower(tr)
		}
		if tr != qr {
			return false
		}
	}
	return true
}

// rangeFor maps global rune positions back onto the text nodes they fall
// in. The end boundary lands inside the segment holding the match's last
// rune, so its offset is never zero.
func rangeFor(segs []textSegment, start, end int) *Range {
	r := &Range{}
	for _, seg := range segs {
		segEnd := seg.start + len(seg.runes)
		if r.StartContainer == nil && start < segEnd {
			r.StartContainer = seg.node
			r.StartOffset = start - seg.start
		}
		if r.StartContainer != nil && end <= segEnd {
			r.EndContainer = seg.node
			r.EndOffset = end - seg.start
			break
		}
	}
	return r
}
