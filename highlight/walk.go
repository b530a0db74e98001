package highlight

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// Elements whose text is never highlighted and never descended into.
var ignoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"select":   true,
	"option":   true,
	"button":   true,
	"object":   true,
	"applet":   true,
	"video":    true,
	"audio":    true,
	"canvas":   true,
	"embed":    true,
	"param":    true,
	"meter":    true,
	"progress": true,
}

func isIgnoredElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && ignoredTags[strings.ToLower(n.Data)]
}

// wrapRange walks the refined selection in pre-order and wraps each
// qualifying text node in a clone of wrapper. The walk carries two flags:
// goDeeper decides between descending and advancing, done stops the walk
// at or after the end container. Returned markers are in visitation
// order, which is not always document order.
func (h *Highlighter) wrapRange(r *dom.Range, wrapper *html.Node) []*html.Node {
	start, end, goDeeper, ok := refineBoundaries(r)
	if !ok {
		return nil
	}

	var marks []*html.Node
	node := start
	done := false
	for !done && node != nil {
		if goDeeper && node.Type == html.TextNode {
			if !isIgnoredElement(node.Parent) && strings.TrimSpace(node.Data) != "" {
				// Wrap only text that lives inside the anchor; a selection
				// can leak outside the annotated region.
				if dom.Contains(h.el, node.Parent) {
					clone := dom.CloneShallow(wrapper)
					dom.SetAttr(clone, DataAttr, "true")
					marks = append(marks, dom.Wrap(node, clone))
				}
			}
			goDeeper = false
		}
		if node == end && !(goDeeper && end.FirstChild != nil) {
			done = true
		}
		if isIgnoredElement(node) {
			if end.Parent == node {
				done = true
			}
			goDeeper = false
		}

		switch {
		case goDeeper && node.FirstChild != nil:
			node = node.FirstChild
		case node.NextSibling != nil:
			node = node.NextSibling
			goDeeper = true
		default:
			node = node.Parent
			goDeeper = false
		}
	}
	return marks
}
