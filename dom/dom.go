// Package dom provides the tree primitives the highlighter operates on:
// attribute, class and inline-style access, text-node splitting, wrapping
// and unwrapping, position helpers, and parse/render round-trips over
// golang.org/x/net/html nodes. The tree itself stays host-owned; every
// helper mutates it in place.
package dom

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// Attr returns the value of the named attribute on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether n carries the named attribute.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets or replaces the named attribute on n.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes the named attribute from n if present.
func RemoveAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether the element's class attribute contains name.
func HasClass(n *html.Node, name string) bool {
	val, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(val) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends name to the element's class attribute.
func AddClass(n *html.Node, name string) {
	if name == "" || HasClass(n, name) {
		return
	}
	val, _ := Attr(n, "class")
	if val == "" {
		SetAttr(n, "class", name)
		return
	}
	SetAttr(n, "class", val+" "+name)
}

// RemoveClass removes name from the element's class attribute, dropping
// the attribute entirely when no classes remain.
func RemoveClass(n *html.Node, name string) {
	val, ok := Attr(n, "class")
	if !ok {
		return
	}
	fields := strings.Fields(val)
	kept := fields[:0]
	for _, c := range fields {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// StyleProp returns one property value from the element's inline style
// attribute, or "" when unset.
func StyleProp(n *html.Node, prop string) string {
	style, ok := Attr(n, "style")
	if !ok {
		return ""
	}
	for _, decl := range strings.Split(style, ";") {
		k, v, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), prop) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// SetStyleProp sets one property in the element's inline style attribute,
// preserving unrelated declarations.
func SetStyleProp(n *html.Node, prop, val string) {
	style, _ := Attr(n, "style")
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		k, _, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), prop) {
			continue
		}
		decls = append(decls, strings.TrimSpace(decl))
	}
	decls = append(decls, prop+": "+val)
	SetAttr(n, "style", strings.Join(decls, "; "))
}

// BackgroundColor returns the element's inline background color, or "".
func BackgroundColor(n *html.Node) string {
	return StyleProp(n, "background-color")
}

// SetBackgroundColor sets the element's inline background color.
func SetBackgroundColor(n *html.Node, color string) {
	SetStyleProp(n, "background-color", color)
}

// TextContent concatenates every text node in n's subtree, n included.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// TextLength returns a text node's payload length in runes.
func TextLength(n *html.Node) int {
	return utf8.RuneCountInString(n.Data)
}

// Contains reports whether other is n itself or one of n's descendants.
func Contains(n, other *html.Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// ChildCount returns the number of direct children of n.
func ChildCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// ChildAt returns the i-th direct child of n, or nil when out of range.
func ChildAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; c = c.NextSibling {
		i--
	}
	return c
}

// ChildIndex returns n's position among its parent's children, or -1 for
// a detached node.
func ChildIndex(n *html.Node) int {
	if n.Parent == nil {
		return -1
	}
	i := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			return i
		}
		i++
	}
	return -1
}

// Detach removes n from its parent. Detaching an already-detached node is
// a no-op.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertBefore places n immediately before ref under ref's parent.
func InsertBefore(n, ref *html.Node) {
	Detach(n)
	ref.Parent.InsertBefore(n, ref)
}

// InsertAfter places n immediately after ref under ref's parent.
func InsertAfter(n, ref *html.Node) {
	Detach(n)
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// Append attaches n as the last child of parent.
func Append(parent, n *html.Node) {
	Detach(n)
	parent.AppendChild(n)
}

// Prepend attaches n as the first child of parent.
func Prepend(parent, n *html.Node) {
	Detach(n)
	parent.InsertBefore(n, parent.FirstChild)
}

// Wrap replaces n with wrapper at n's tree position and reattaches n as
// wrapper's only child. Returns wrapper.
func Wrap(n, wrapper *html.Node) *html.Node {
	Detach(wrapper)
	if n.Parent != nil {
		n.Parent.InsertBefore(wrapper, n)
		n.Parent.RemoveChild(n)
	}
	wrapper.AppendChild(n)
	return wrapper
}

// Unwrap replaces n with its children and removes n. Returns the released
// children in order.
func Unwrap(n *html.Node) []*html.Node {
	var released []*html.Node
	for n.FirstChild != nil {
		c := n.FirstChild
		n.RemoveChild(c)
		if n.Parent != nil {
			n.Parent.InsertBefore(c, n)
		}
		released = append(released, c)
	}
	Detach(n)
	return released
}

// SplitText splits a text node at a rune offset. n keeps the runes before
// the offset; the remainder moves to a new text node inserted directly
// after n, which is returned. Offsets at either end produce an empty
// half, matching DOM splitText.
func SplitText(n *html.Node, offset int) (*html.Node, error) {
	if !IsText(n) {
		return nil, ErrNotText
	}
	runes := []rune(n.Data)
	if offset < 0 || offset > len(runes) {
		return nil, fmt.Errorf("%w: offset %d, length %d", ErrOffsetRange, offset, len(runes))
	}
	rest := &html.Node{Type: html.TextNode, Data: string(runes[offset:])}
	n.Data = string(runes[:offset])
	if n.Parent != nil {
		n.Parent.InsertBefore(rest, n.NextSibling)
	}
	return rest, nil
}

// MergeSiblingText folds text siblings immediately adjacent to the text
// node n into n and removes them.
func MergeSiblingText(n *html.Node) {
	if !IsText(n) {
		return
	}
	if prev := n.PrevSibling; prev != nil && prev.Type == html.TextNode {
		n.Data = prev.Data + n.Data
		Detach(prev)
	}
	if next := n.NextSibling; next != nil && next.Type == html.TextNode {
		n.Data = n.Data + next.Data
		Detach(next)
	}
}

// NormalizeText coalesces runs of adjacent text-node children throughout
// n's subtree and drops empty text nodes, like DOM Node.normalize.
func NormalizeText(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && c.Data == "":
			Detach(c)
		case c.Type == html.TextNode && c.PrevSibling != nil && c.PrevSibling.Type == html.TextNode:
			c.PrevSibling.Data += c.Data
			Detach(c)
		default:
			NormalizeText(c)
		}
		c = next
	}
}

// CloneShallow copies a node without its children.
func CloneShallow(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		clone.Attr = make([]html.Attribute, len(n.Attr))
		copy(clone.Attr, n.Attr)
	}
	return clone
}

// OuterHTML renders n, markup included.
func OuterHTML(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", fmt.Errorf("render node: %w", err)
	}
	return b.String(), nil
}

// InnerHTML renders n's children, concatenated.
func InnerHTML(n *html.Node) (string, error) {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("render node: %w", err)
		}
	}
	return b.String(), nil
}

// ParseFragment parses an HTML fragment in a body context and returns the
// top-level nodes, detached.
func ParseFragment(s string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return nodes, nil
}

// Path returns the child-index path from root down to n, n's own index
// included. ok is false when n is not inside root.
func Path(n, root *html.Node) ([]int, bool) {
	if n == root {
		return []int{}, true
	}
	var path []int
	for cur := n; cur != root; cur = cur.Parent {
		if cur.Parent == nil {
			return nil, false
		}
		path = append(path, ChildIndex(cur))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// NodeAtPath descends from root by child indices. ok is false when any
// index is out of range.
func NodeAtPath(root *html.Node, path []int) (*html.Node, bool) {
	cur := root
	for _, i := range path {
		cur = ChildAt(cur, i)
		if cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Depth returns the number of ancestors above n.
func Depth(n *html.Node) int {
	d := 0
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

// CompareOrder orders two nodes of the same tree by pre-order document
// position: -1 when a precedes b, +1 when it follows, 0 for the same
// node. An ancestor precedes its descendants.
func CompareOrder(a, b *html.Node) int {
	if a == b {
		return 0
	}
	pa := ancestry(a)
	pb := ancestry(b)
	i := 0
	for i < len(pa) && i < len(pb) && pa[i] == pb[i] {
		i++
	}
	switch {
	case i == len(pa):
		return -1
	case i == len(pb):
		return 1
	}
	if ChildIndex(pa[i]) < ChildIndex(pb[i]) {
		return -1
	}
	return 1
}

// ancestry returns the chain from the tree root down to n, n included.
func ancestry(n *html.Node) []*html.Node {
	var chain []*html.Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Document is a parsed HTML document.
type Document struct {
	Root  *html.Node
	Title string
}

// ParseDocument parses a full HTML document.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{Root: root, Title: findTitle(root)}, nil
}

// Body returns the document's body element, or the root when the parsed
// tree has none.
func (d *Document) Body() *html.Node {
	if b := FindElement(d.Root, "body"); b != nil {
		return b
	}
	return d.Root
}

// Render returns the markup for the whole document.
func (d *Document) Render() (string, error) {
	return OuterHTML(d.Root)
}

// FindElement returns the first element with the given tag in n's
// subtree, or nil.
func FindElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(n *html.Node) string {
	if t := FindElement(n, "title"); t != nil {
		return strings.TrimSpace(TextContent(t))
	}
	return ""
}
