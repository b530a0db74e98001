package highlight

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// Serialize encodes every highlight under the anchor as a JSON array of
// [wrapperHTML, text, "i:j:k" path, offset, length] descriptors. Paths
// are child indices from the anchor; offset counts the runes of a text
// sibling directly before the marker; length is the marker's text length
// in runes. The tuple shape is a compatibility contract with previously
// persisted payloads.
func (h *Highlighter) Serialize() (string, error) {
	marks := h.Highlights(Query{})
	sortByDepth(marks, false)

	descriptors := make([][]any, 0, len(marks))
	for _, m := range marks {
		path, ok := dom.Path(m, h.el)
		if !ok {
			continue
		}
		wrapperHTML, err := dom.OuterHTML(dom.CloneShallow(m))
		if err != nil {
			return "", fmt.Errorf("render wrapper: %w", err)
		}
		offset := 0
		if prev := m.PrevSibling; prev != nil && prev.Type == html.TextNode {
			offset = dom.TextLength(prev)
		}
		text := dom.TextContent(m)
		descriptors = append(descriptors, []any{
			wrapperHTML,
			text,
			joinPath(path),
			offset,
			utf8.RuneCountInString(text),
		})
	}

	payload, err := json.Marshal(descriptors)
	if err != nil {
		return "", fmt.Errorf("marshal highlights: %w", err)
	}
	return string(payload), nil
}

// Deserialize restores highlights from a Serialize payload onto the
// current tree, which must be in the same structural state the payload
// was captured from. Restored markers are returned in descriptor order.
// A payload that is not a JSON array fails with ErrParse; a descriptor
// that no longer fits the tree is logged and skipped.
func (h *Highlighter) Deserialize(payload string) ([]*html.Node, error) {
	if payload == "" {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var marks []*html.Node
	for i, item := range raw {
		mark, err := h.decodeDescriptor(item)
		if err != nil {
			h.opts.Logger.Warn("skipping highlight descriptor",
				"index", i,
				"error", err)
			continue
		}
		marks = append(marks, mark)
	}
	return marks, nil
}

type descriptor struct {
	wrapper string
	text    string
	path    string
	offset  int
	length  int
}

func parseDescriptor(item json.RawMessage) (*descriptor, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return nil, fmt.Errorf("descriptor is not an array: %w", err)
	}
	if len(fields) != 5 {
		return nil, fmt.Errorf("descriptor has %d fields, want 5", len(fields))
	}
	var d descriptor
	if err := json.Unmarshal(fields[0], &d.wrapper); err != nil {
		return nil, fmt.Errorf("wrapper field: %w", err)
	}
	if err := json.Unmarshal(fields[1], &d.text); err != nil {
		return nil, fmt.Errorf("text field: %w", err)
	}
	if err := json.Unmarshal(fields[2], &d.path); err != nil {
		return nil, fmt.Errorf("path field: %w", err)
	}
	if err := json.Unmarshal(fields[3], &d.offset); err != nil {
		return nil, fmt.Errorf("offset field: %w", err)
	}
	if err := json.Unmarshal(fields[4], &d.length); err != nil {
		return nil, fmt.Errorf("length field: %w", err)
	}
	return &d, nil
}

func (h *Highlighter) decodeDescriptor(item json.RawMessage) (*html.Node, error) {
	d, err := parseDescriptor(item)
	if err != nil {
		return nil, err
	}
	indices, err := splitPath(d.path)
	if err != nil {
		return nil, err
	}
	elIndex := indices[len(indices)-1]
	parent, ok := dom.NodeAtPath(h.el, indices[:len(indices)-1])
	if !ok {
		return nil, fmt.Errorf("path %q walks off the tree", d.path)
	}
	// The target run can sit one slot earlier than recorded when the
	// surrounding text nodes were split differently at encode time.
	if prev := dom.ChildAt(parent, elIndex-1); prev != nil && prev.Type == html.TextNode {
		elIndex--
	}
	target := dom.ChildAt(parent, elIndex)
	if target == nil {
		return nil, fmt.Errorf("path %q: no child at index %d", d.path, elIndex)
	}

	carved, err := dom.SplitText(target, d.offset)
	if err != nil {
		return nil, fmt.Errorf("split at offset %d: %w", d.offset, err)
	}
	if _, err := dom.SplitText(carved, d.length); err != nil {
		return nil, fmt.Errorf("split at length %d: %w", d.length, err)
	}
	if next := carved.NextSibling; next != nil && next.Type == html.TextNode && next.Data == "" {
		dom.Detach(next)
	}
	if prev := carved.PrevSibling; prev != nil && prev.Type == html.TextNode && prev.Data == "" {
		dom.Detach(prev)
	}

	wrapper, err := parseWrapper(d.wrapper)
	if err != nil {
		return nil, err
	}
	return dom.Wrap(carved, wrapper), nil
}

func splitPath(path string) ([]int, error) {
	parts := strings.Split(path, ":")
	indices := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
		indices[i] = n
	}
	return indices, nil
}

func parseWrapper(s string) (*html.Node, error) {
	nodes, err := dom.ParseFragment(s)
	if err != nil {
		return nil, fmt.Errorf("parse wrapper: %w", err)
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, fmt.Errorf("wrapper %q contains no element", s)
}

func joinPath(path []int) string {
	parts := make([]string, len(path))
	for i, idx := range path {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ":")
}
