package highlight

import (
	"log/slog"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Brakebein/texthighlighter/dom"
)

// Marker attributes. DataAttr flags an element as a highlight;
// TimestampAttr carries the creation group in unix milliseconds.
const (
	DataAttr      = "data-highlighted"
	TimestampAttr = "data-timestamp"
)

// Defaults applied by New for zero Options fields.
const (
	DefaultColor            = "#ffff7b"
	DefaultHighlightedClass = "highlighted"
	DefaultContextClass     = "highlighter-context"
)

// Options configures a Highlighter. The zero value selects the defaults.
type Options struct {
	// Color is the background color applied to new highlights.
	Color string
	// HighlightedClass is the class set on every marker element.
	HighlightedClass string
	// ContextClass is the class carried by the anchor element while the
	// highlighter is attached.
	ContextClass string
	// Hooks intercepts highlight lifecycle events; nil is permissive.
	Hooks Hooks
	// Logger receives per-descriptor decode warnings; nil uses
	// slog.Default.
	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.Color == "" {
		o.Color = DefaultColor
	}
	if o.HighlightedClass == "" {
		o.HighlightedClass = DefaultHighlightedClass
	}
	if o.ContextClass == "" {
		o.ContextClass = DefaultContextClass
	}
	if o.Hooks == nil {
		o.Hooks = PermissiveHooks{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Hooks are the host's policy callbacks around highlight mutation.
type Hooks interface {
	// BeforeHighlight may veto an entire highlight operation before any
	// tree mutation happens.
	BeforeHighlight(r *dom.Range) bool
	// AfterHighlight reports the normalized markers created by one
	// operation together with their shared timestamp.
	AfterHighlight(r *dom.Range, marks []*html.Node, timestamp string)
	// OnRemove may veto the removal of one marker.
	OnRemove(mark *html.Node) bool
}

// PermissiveHooks allows every operation and ignores notifications.
type PermissiveHooks struct{}

func (PermissiveHooks) BeforeHighlight(*dom.Range) bool { return true }

func (PermissiveHooks) AfterHighlight(*dom.Range, []*html.Node, string) {}

func (PermissiveHooks) OnRemove(*html.Node) bool { return true }

// CreateWrapper builds the marker template element for the configured
// color and class.
func CreateWrapper(opts Options) *html.Node {
	span := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
	if opts.Color != "" {
		dom.SetBackgroundColor(span, opts.Color)
	}
	if opts.HighlightedClass != "" {
		dom.SetAttr(span, "class", opts.HighlightedClass)
	}
	return span
}
