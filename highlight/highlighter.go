// Package highlight implements text highlighting over an HTML tree:
// turning a selection range into marker-wrapped text runs, normalizing
// the marker structure to its minimal form, and serializing marker
// positions so they survive a teardown and reparse of the same document.
package highlight

import (
	"strconv"
	"time"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

// Highlighter annotates text under a single anchor element. It holds no
// tree state between operations beyond the anchor reference; callers own
// the tree and must not mutate it concurrently with an operation.
type Highlighter struct {
	el     *html.Node
	opts   Options
	lastTS int64
}

// New attaches a highlighter to an anchor element. The anchor carries the
// context class until Destroy is called.
func New(el *html.Node, opts Options) (*Highlighter, error) {
	if el == nil {
		return nil, ErrMissingAnchor
	}
	opts.applyDefaults()
	dom.AddClass(el, opts.ContextClass)
	return &Highlighter{el: el, opts: opts}, nil
}

// Destroy detaches the highlighter from its anchor. Existing highlights
// stay in place.
func (h *Highlighter) Destroy() {
	dom.RemoveClass(h.el, h.opts.ContextClass)
}

// Anchor returns the element this highlighter operates under.
func (h *Highlighter) Anchor() *html.Node {
	return h.el
}

// SetColor changes the background color used for subsequent highlights.
func (h *Highlighter) SetColor(color string) {
	h.opts.Color = color
}

// Color returns the background color used for new highlights.
func (h *Highlighter) Color() string {
	return h.opts.Color
}

// timestamp returns the creation-group value for one operation: unix
// milliseconds, pushed forward when two operations land in the same tick
// so groups stay distinct.
func (h *Highlighter) timestamp() string {
	now := time.Now().UnixMilli()
	if now <= h.lastTS {
		now = h.lastTS + 1
	}
	h.lastTS = now
	return strconv.FormatInt(now, 10)
}

// HighlightRange wraps the text inside r in marker elements and returns
// the normalized markers. A collapsed range or a BeforeHighlight veto
// yields nil without touching the tree.
func (h *Highlighter) HighlightRange(r *dom.Range) []*html.Node {
	if r == nil || r.Collapsed() {
		return nil
	}
	if !h.opts.Hooks.BeforeHighlight(r) {
		return nil
	}
	ts := h.timestamp()
	wrapper := CreateWrapper(h.opts)
	dom.SetAttr(wrapper, TimestampAttr, ts)

	created := h.wrapRange(r, wrapper)
	normalized := h.Normalize(created)
	h.opts.Hooks.AfterHighlight(r, normalized, ts)
	return normalized
}

// RemoveHighlights unwraps every highlight under container (the anchor
// when nil), subject to the OnRemove veto, and stitches the released
// text nodes back together with their neighbors.
func (h *Highlighter) RemoveHighlights(container *html.Node) {
	if container == nil {
		container = h.el
	}
	marks := h.Highlights(Query{Container: container})
	sortByDepth(marks, true)
	for _, m := range marks {
		if !h.opts.Hooks.OnRemove(m) {
			continue
		}
		for _, released := range dom.Unwrap(m) {
			dom.MergeSiblingText(released)
		}
	}
}
