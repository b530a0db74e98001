// Command texthl annotates local documents from the command line.
// It converts supported files to HTML, highlights ranges or search
// matches, and round-trips highlight descriptors as JSON.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
	"github.com/Brakebein/texthighlighter/highlight"
	"github.com/Brakebein/texthighlighter/internal/ingest"
)

const version = "0.4.0"

// CLI defines the command-line interface for texthl.
var CLI struct {
	Annotate AnnotateCmd `cmd:"" help:"Highlight a range of text in a document"`
	Find     FindCmd     `cmd:"" help:"Highlight every occurrence of a text"`
	List     ListCmd     `cmd:"" help:"List the highlights in an annotated document"`
	Remove   RemoveCmd   `cmd:"" help:"Remove highlights from an annotated document"`
	Export   ExportCmd   `cmd:"" help:"Export highlight descriptors as JSON"`
	Import   ImportCmd   `cmd:"" help:"Apply exported descriptors to a document"`
	Render   RenderCmd   `cmd:"" help:"Convert a document to its annotatable HTML form"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// AnnotateCmd highlights one range addressed by child-index paths or
// XPath expressions relative to the document body.
type AnnotateCmd struct {
	Path        string `arg:"" help:"Document to annotate" type:"existingfile"`
	StartPath   string `name:"start-path" help:"Child-index path of the range start, e.g. 0:1"`
	StartXPath  string `name:"start-xpath" help:"XPath of the range start"`
	StartOffset int    `name:"start-offset" required:"" help:"Offset within the start node"`
	EndPath     string `name:"end-path" help:"Child-index path of the range end"`
	EndXPath    string `name:"end-xpath" help:"XPath of the range end"`
	EndOffset   int    `name:"end-offset" required:"" help:"Offset within the end node"`
	Color       string `help:"Background color for the new highlight"`
	Out         string `short:"o" help:"Write annotated HTML here instead of stdout" type:"path"`
}

func (c *AnnotateCmd) Run() error {
	doc, err := loadDocument(c.Path)
	if err != nil {
		return err
	}
	h, err := highlight.New(doc.Body(), highlight.Options{Color: c.Color})
	if err != nil {
		return err
	}

	start, err := locateNode(doc.Body(), c.StartPath, c.StartXPath)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := locateNode(doc.Body(), c.EndPath, c.EndXPath)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}

	marks := h.HighlightRange(&dom.Range{
		StartContainer: start,
		StartOffset:    c.StartOffset,
		EndContainer:   end,
		EndOffset:      c.EndOffset,
	})
	if len(marks) == 0 {
		return errors.New("range selects no highlightable text")
	}
	h.Destroy()

	rendered, err := doc.Render()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "highlighted %d marker(s)\n", len(marks))
	return writeOutput(c.Out, rendered)
}

// FindCmd highlights every occurrence of a text.
type FindCmd struct {
	Path       string `arg:"" help:"Document to search" type:"existingfile"`
	Text       string `arg:"" help:"Text to highlight"`
	IgnoreCase bool   `help:"Match regardless of letter case"`
	Color      string `help:"Background color for the new highlights"`
	Out        string `short:"o" help:"Write annotated HTML here instead of stdout" type:"path"`
}

func (c *FindCmd) Run() error {
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("text is required")
	}
	doc, err := loadDocument(c.Path)
	if err != nil {
		return err
	}
	h, err := highlight.New(doc.Body(), highlight.Options{Color: c.Color})
	if err != nil {
		return err
	}

	marks := h.Find(c.Text, !c.IgnoreCase)
	h.Destroy()

	rendered, err := doc.Render()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d occurrence(s) highlighted\n", countGroups(marks))
	return writeOutput(c.Out, rendered)
}

// ListCmd prints the highlights found in an annotated document.
type ListCmd struct {
	Path    string `arg:"" help:"Annotated document" type:"existingfile"`
	Grouped bool   `help:"Group markers created by one operation"`
}

func (c *ListCmd) Run() error {
	doc, err := loadDocument(c.Path)
	if err != nil {
		return err
	}
	h, err := highlight.New(doc.Body(), highlight.Options{})
	if err != nil {
		return err
	}

	if c.Grouped {
		for _, g := range h.GroupedHighlights(highlight.Query{}) {
			fmt.Printf("%s\t%d\t%q\n", g.Timestamp, len(g.Marks), g.Text())
		}
		return nil
	}
	for _, m := range h.Highlights(highlight.Query{}) {
		ts, _ := dom.Attr(m, highlight.TimestampAttr)
		fmt.Printf("%s\t%q\n", ts, dom.TextContent(m))
	}
	return nil
}

// RemoveCmd strips highlights, optionally scoped to one creation group
// or to the element an XPath matches.
type RemoveCmd struct {
	Path      string `arg:"" help:"Annotated document" type:"existingfile"`
	Timestamp string `help:"Remove only the group with this timestamp"`
	XPath     string `help:"Remove only inside the element this XPath matches"`
	Out       string `short:"o" help:"Write cleaned HTML here instead of stdout" type:"path"`
}

func (c *RemoveCmd) Run() error {
	doc, err := loadDocument(c.Path)
	if err != nil {
		return err
	}
	h, err := highlight.New(doc.Body(), highlight.Options{})
	if err != nil {
		return err
	}

	before := len(h.Highlights(highlight.Query{}))
	switch {
	case c.Timestamp != "":
		for _, g := range h.GroupedHighlights(highlight.Query{}) {
			if g.Timestamp != c.Timestamp {
				continue
			}
			for _, m := range g.Marks {
				h.RemoveHighlights(m)
			}
		}
	case c.XPath != "":
		scope, err := dom.Query(doc.Body(), c.XPath)
		if err != nil {
			return fmt.Errorf("xpath %q: %w", c.XPath, err)
		}
		if scope == nil {
			return fmt.Errorf("xpath %q matched nothing", c.XPath)
		}
		h.RemoveHighlights(scope)
	default:
		h.RemoveHighlights(nil)
	}
	removed := before - len(h.Highlights(highlight.Query{}))
	h.Destroy()

	rendered, err := doc.Render()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "removed %d marker(s)\n", removed)
	return writeOutput(c.Out, rendered)
}

// ExportCmd serializes the highlights of an annotated document.
type ExportCmd struct {
	Path string `arg:"" help:"Annotated document" type:"existingfile"`
	Out  string `short:"o" help:"Write descriptor JSON here instead of stdout" type:"path"`
}

func (c *ExportCmd) Run() error {
	doc, err := loadDocument(c.Path)
	if err != nil {
		return err
	}
	h, err := highlight.New(doc.Body(), highlight.Options{})
	if err != nil {
		return err
	}
	payload, err := h.Serialize()
	if err != nil {
		return err
	}
	return writeOutput(c.Out, payload)
}

// ImportCmd applies a descriptor payload to a clean document.
type ImportCmd struct {
	Path    string `arg:"" help:"Document the descriptors were captured from" type:"existingfile"`
	Payload string `arg:"" help:"Descriptor JSON file" type:"existingfile"`
	Out     string `short:"o" help:"Write annotated HTML here instead of stdout" type:"path"`
}

func (c *ImportCmd) Run() error {
	doc, err := loadDocument(c.Path)
	if err != nil {
		return err
	}
	h, err := highlight.New(doc.Body(), highlight.Options{})
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(c.Payload)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	marks, err := h.Deserialize(string(payload))
	if err != nil {
		return err
	}
	h.Destroy()

	rendered, err := doc.Render()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "restored %d marker(s)\n", len(marks))
	return writeOutput(c.Out, rendered)
}

// RenderCmd converts a supported document to the HTML form the engine
// annotates.
type RenderCmd struct {
	Path string `arg:"" help:"Document to convert" type:"existingfile"`
	Out  string `short:"o" help:"Write HTML here instead of stdout" type:"path"`
}

func (c *RenderCmd) Run() error {
	doc, err := loadDocument(c.Path)
	if err != nil {
		return err
	}
	rendered, err := doc.Render()
	if err != nil {
		return err
	}
	return writeOutput(c.Out, rendered)
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("texthl version %s\n", version)
	return nil
}

// loadDocument parses a local file into the annotatable document form.
func loadDocument(path string) (*dom.Document, error) {
	p, err := ingest.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

// locateNode resolves a range endpoint given as a child-index path or an
// XPath expression, both relative to body.
func locateNode(body *html.Node, path, xpathExpr string) (*html.Node, error) {
	switch {
	case xpathExpr != "":
		n, err := dom.Query(body, xpathExpr)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, fmt.Errorf("xpath %q matched nothing", xpathExpr)
		}
		return n, nil
	case path != "":
		parts := strings.Split(path, ":")
		indices := make([]int, 0, len(parts))
		for _, part := range parts {
			i, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || i < 0 {
				return nil, fmt.Errorf("bad path segment %q", part)
			}
			indices = append(indices, i)
		}
		n, ok := dom.NodeAtPath(body, indices)
		if !ok {
			return nil, fmt.Errorf("path %q is out of range", path)
		}
		return n, nil
	default:
		return nil, errors.New("a path or xpath is required")
	}
}

// countGroups counts distinct creation groups among marks.
func countGroups(marks []*html.Node) int {
	seen := make(map[string]bool)
	for _, m := range marks {
		ts, _ := dom.Attr(m, highlight.TimestampAttr)
		seen[ts] = true
	}
	return len(seen)
}

func writeOutput(out, data string) error {
	if out == "" || out == "-" {
		_, err := os.Stdout.WriteString(data)
		return err
	}
	return os.WriteFile(out, []byte(data), 0o644)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("texthl"),
		kong.Description("Highlight, search and persist text annotations in HTML documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
