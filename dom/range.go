package dom

import "golang.org/x/net/html"

// Range is a selection span between two boundary points. Each boundary is
// a container node plus an offset: a rune offset inside text containers,
// a child index inside element containers.
type Range struct {
	StartContainer *html.Node
	StartOffset    int
	EndContainer   *html.Node
	EndOffset      int
}

// Collapsed reports whether the range selects nothing.
func (r *Range) Collapsed() bool {
	return r.StartContainer == r.EndContainer && r.StartOffset == r.EndOffset
}

// CommonAncestor returns the deepest node containing both boundary
// points, or nil when the boundaries live in different trees.
func (r *Range) CommonAncestor() *html.Node {
	if r.StartContainer == r.EndContainer {
		return r.StartContainer
	}
	seen := make(map[*html.Node]bool)
	for cur := r.StartContainer; cur != nil; cur = cur.Parent {
		seen[cur] = true
	}
	for cur := r.EndContainer; cur != nil; cur = cur.Parent {
		if seen[cur] {
			return cur
		}
	}
	return nil
}
