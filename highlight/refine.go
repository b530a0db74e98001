package highlight

import (
	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// refineBoundaries turns a raw selection into concrete walk endpoints,
// splitting boundary text nodes so the walk wraps whole nodes only. The
// splits mutate the tree immediately and are not rolled back; they never
// lose characters. goDeeper is false when the walk must not descend into
// the start node. ok is false when nothing remains to highlight.
func refineBoundaries(r *dom.Range) (start, end *html.Node, goDeeper, ok bool) {
	start = r.StartContainer
	end = r.EndContainer
	ancestor := r.CommonAncestor()
	goDeeper = true

	switch {
	case r.EndOffset == 0:
		// The selection ends just before the end container: back up to
		// the nearest preceding sibling, climbing past ancestors that
		// have none.
		for end.PrevSibling == nil && end.Parent != ancestor {
			end = end.Parent
		}
		end = end.PrevSibling
		if end == nil {
			return nil, nil, false, false
		}
	case dom.IsText(end):
		if r.EndOffset < dom.TextLength(end) {
			if _, err := dom.SplitText(end, r.EndOffset); err != nil {
				return nil, nil, false, false
			}
		}
	default:
		end = dom.ChildAt(end, r.EndOffset-1)
	}

	if dom.IsText(start) {
		switch {
		case r.StartOffset == dom.TextLength(start):
			goDeeper = false
		case r.StartOffset > 0:
			rest, err := dom.SplitText(start, r.StartOffset)
			if err != nil {
				return nil, nil, false, false
			}
			if end == rest.PrevSibling {
				end = rest
			}
			start = rest
		}
	} else if r.StartOffset < dom.ChildCount(start) {
		start = dom.ChildAt(start, r.StartOffset)
	} else {
		start = start.NextSibling
	}

	if start == nil || end == nil {
		return nil, nil, false, false
	}
	return start, end, goDeeper, true
}
