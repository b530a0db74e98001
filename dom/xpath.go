package dom

import (
	"fmt"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// nav adapts *html.Node to xpath.NodeNavigator so compiled XPath
// expressions can select into a live document. Movement is clamped at the
// navigator's root so anchored queries cannot escape their subtree.
type nav struct {
	root, cur *html.Node
	attrIx    int
}

// NewNavigator returns an XPath navigator rooted at root.
func NewNavigator(root *html.Node) xpath.NodeNavigator {
	return &nav{root: root, cur: root, attrIx: -1}
}

func (n *nav) NodeType() xpath.NodeType {
	if n.attrIx >= 0 {
		return xpath.AttributeNode
	}
	if n.cur == n.root {
		return xpath.RootNode
	}
	switch n.cur.Type {
	case html.ElementNode:
		return xpath.ElementNode
	case html.TextNode:
		return xpath.TextNode
	case html.CommentNode:
		return xpath.CommentNode
	default:
		return xpath.RootNode
	}
}

func (n *nav) LocalName() string {
	if n.attrIx >= 0 {
		return n.cur.Attr[n.attrIx].Key
	}
	return n.cur.Data
}

func (n *nav) Prefix() string { return "" }

func (n *nav) Value() string {
	if n.attrIx >= 0 {
		return n.cur.Attr[n.attrIx].Val
	}
	switch n.cur.Type {
	case html.TextNode, html.CommentNode:
		return n.cur.Data
	default:
		return TextContent(n.cur)
	}
}

func (n *nav) Copy() xpath.NodeNavigator {
	cp := *n
	return &cp
}

func (n *nav) MoveToRoot() {
	n.cur = n.root
	n.attrIx = -1
}

func (n *nav) MoveToParent() bool {
	if n.attrIx >= 0 {
		n.attrIx = -1
		return true
	}
	if n.cur == n.root || n.cur.Parent == nil {
		return false
	}
	n.cur = n.cur.Parent
	return true
}

func (n *nav) MoveToNext() bool {
	if n.attrIx >= 0 || n.cur == n.root || n.cur.NextSibling == nil {
		return false
	}
	n.cur = n.cur.NextSibling
	return true
}

func (n *nav) MoveToPrevious() bool {
	if n.attrIx >= 0 || n.cur == n.root || n.cur.PrevSibling == nil {
		return false
	}
	n.cur = n.cur.PrevSibling
	return true
}

func (n *nav) MoveToChild() bool {
	if n.attrIx >= 0 || n.cur.FirstChild == nil {
		return false
	}
	n.cur = n.cur.FirstChild
	return true
}

func (n *nav) MoveToFirst() bool {
	if n.attrIx >= 0 || n.cur == n.root || n.cur.Parent == nil {
		return false
	}
	n.cur = n.cur.Parent.FirstChild
	return true
}

func (n *nav) MoveToAttribute(ns, name string) bool {
	if n.cur.Type != html.ElementNode {
		return false
	}
	for i := range n.cur.Attr {
		if n.cur.Attr[i].Key == name {
			n.attrIx = i
			return true
		}
	}
	return false
}

func (n *nav) MoveToNextAttribute() bool {
	if n.cur.Type != html.ElementNode {
		return false
	}
	if n.attrIx+1 >= len(n.cur.Attr) {
		return false
	}
	n.attrIx++
	return true
}

func (n *nav) MoveToNamespace(prefix string) bool { return false }

func (n *nav) MoveToNextNamespace() bool { return false }

func (n *nav) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*nav)
	if !ok || o.root != n.root {
		return false
	}
	n.cur = o.cur
	n.attrIx = o.attrIx
	return true
}

// Query runs an XPath expression against root and returns the first
// matching node, or nil when nothing matches.
func Query(root *html.Node, expr string) (*html.Node, error) {
	nodes, err := QueryAll(root, expr)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

// QueryAll runs an XPath expression against root and returns every
// matching node. Attribute matches yield their owning element.
func QueryAll(root *html.Node, expr string) ([]*html.Node, error) {
	x, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile xpath %q: %w", expr, err)
	}
	iter := x.Select(NewNavigator(root))
	var out []*html.Node
	for iter.MoveNext() {
		cur, ok := iter.Current().(*nav)
		if !ok {
			continue
		}
		out = append(out, cur.cur)
	}
	return out, nil
}
