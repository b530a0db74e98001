package highlight

import (
	"sort"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// Normalize reduces freshly created markers to canonical form: nested
// markers are flattened, adjacent same-color sibling markers merged,
// detached and duplicate references dropped, and the survivors sorted by
// document position. Normalizing an already-canonical set changes
// nothing.
func (h *Highlighter) Normalize(marks []*html.Node) []*html.Node {
	flattenNested(marks)
	mergeSiblings(marks)

	out := make([]*html.Node, 0, len(marks))
	seen := make(map[*html.Node]bool, len(marks))
	for _, m := range marks {
		if m.Parent == nil || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dom.CompareOrder(out[i], out[j]) < 0
	})
	return out
}

// sortByDepth orders marks by tree depth, deepest first when descending
// is set.
func sortByDepth(marks []*html.Node, descending bool) {
	sort.SliceStable(marks, func(i, j int) bool {
		if descending {
			return dom.Depth(marks[i]) > dom.Depth(marks[j])
		}
		return dom.Depth(marks[i]) < dom.Depth(marks[j])
	})
}

// flattenNested lifts markers out of parent markers of a different color
// and dissolves markers nested in a parent of the same color. A move can
// create a new nesting or adjacency, so the pass repeats until an
// iteration changes nothing. Entries in marks are rewritten in place when
// a parent survives in a child's stead.
func flattenNested(marks []*html.Node) {
	sortByDepth(marks, true)
	for again := true; again; {
		again = false
		for i, m := range marks {
			parent := m.Parent
			if !IsHighlight(parent) || parent.Parent == nil {
				continue
			}
			parentPrev := parent.PrevSibling
			parentNext := parent.NextSibling

			if !sameColor(parent, m) {
				// Reinsert the nested marker as the parent's sibling. The
				// fallbacks target the parent itself when it has no
				// sibling on the needed side; both moves can fire for a
				// marker that was its parent's only child.
				if m.NextSibling == nil {
					if parentNext != nil {
						dom.InsertBefore(m, parentNext)
					} else {
						dom.InsertBefore(m, parent)
					}
					again = true
				}
				if m.PrevSibling == nil {
					if parentPrev != nil {
						dom.InsertAfter(m, parentPrev)
					} else {
						dom.InsertAfter(m, parent)
					}
					again = true
				}
				if parent.FirstChild == nil {
					dom.Detach(parent)
				}
			} else {
				// Same color: dissolve the nested marker into the parent
				// and let the parent stand in for it.
				if first := m.FirstChild; first != nil {
					dom.InsertBefore(first, m)
				}
				dom.Detach(m)
				marks[i] = parent
				again = true
			}
		}
	}
}

// mergeSiblings absorbs same-color marker siblings into each mark and
// coalesces the text nodes inside the survivor.
func mergeSiblings(marks []*html.Node) {
	shouldMerge := func(current, sibling *html.Node) bool {
		return IsHighlight(sibling) && sameColor(current, sibling)
	}
	for _, m := range marks {
		if m.Parent == nil {
			continue
		}
		if prev := m.PrevSibling; shouldMerge(m, prev) {
			for prev.LastChild != nil {
				dom.Prepend(m, prev.LastChild)
			}
			dom.Detach(prev)
		}
		if next := m.NextSibling; shouldMerge(m, next) {
			for next.FirstChild != nil {
				dom.Append(m, next.FirstChild)
			}
			dom.Detach(next)
		}
		dom.NormalizeText(m)
	}
}
