package highlight

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// IsHighlight reports whether n is a marker element.
func IsHighlight(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && dom.HasAttr(n, DataAttr)
}

// Query selects which highlights to collect. The zero value collects
// every highlight under the anchor, the anchor itself included when it
// qualifies.
type Query struct {
	// Container overrides the anchor as the collection root.
	Container *html.Node
	// SkipSelf leaves the container out even when it is itself a marker.
	SkipSelf bool
}

// Highlights returns the markers under the query container in document
// order, with the container appended last when it qualifies.
func (h *Highlighter) Highlights(q Query) []*html.Node {
	container := q.Container
	if container == nil {
		container = h.el
	}
	var marks []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if IsHighlight(c) {
				marks = append(marks, c)
			}
			walk(c)
		}
	}
	walk(container)
	if !q.SkipSelf && IsHighlight(container) {
		marks = append(marks, container)
	}
	return marks
}

// Group is one highlighting gesture: every marker sharing a creation
// timestamp.
type Group struct {
	Timestamp string
	Marks     []*html.Node
}

// Text returns the concatenated text of the group's markers in collection
// order.
func (g Group) Text() string {
	var b strings.Builder
	for _, m := range g.Marks {
		b.WriteString(dom.TextContent(m))
	}
	return b.String()
}

// GroupedHighlights buckets the query's markers by timestamp, groups in
// first-seen order.
func (h *Highlighter) GroupedHighlights(q Query) []Group {
	marks := h.Highlights(q)
	index := make(map[string]int)
	var groups []Group
	for _, m := range marks {
		ts, _ := dom.Attr(m, TimestampAttr)
		i, ok := index[ts]
		if !ok {
			i = len(groups)
			index[ts] = i
			groups = append(groups, Group{Timestamp: ts})
		}
		groups[i].Marks = append(groups[i].Marks, m)
	}
	return groups
}
