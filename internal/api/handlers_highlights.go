package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
	"github.com/Brakebein/texthighlighter/highlight"
	"github.com/Brakebein/texthighlighter/internal/store"
)

// rangePoint addresses one end of a highlight range: a node located by a
// child-index path relative to the body ("0:1:2") or by an XPath
// expression, plus an offset within that node. Offsets count runes in
// text nodes and children in elements.
type rangePoint struct {
	Path   string `json:"path,omitempty"`
	XPath  string `json:"xpath,omitempty"`
	Offset int    `json:"offset"`
}

type createHighlightRequest struct {
	Start rangePoint `json:"start"`
	End   rangePoint `json:"end"`
	Color string     `json:"color,omitempty"`
}

type findRequest struct {
	Text          string `json:"text"`
	CaseSensitive bool   `json:"case_sensitive"`
	Color         string `json:"color,omitempty"`
}

// docSession is one hydrated load-modify-save cycle over a document's
// highlight state. Ranges submitted by clients address the annotated
// tree, the same markup GET ?annotated=true returns.
type docSession struct {
	doc    *store.Document
	parsed *dom.Document
	body   *html.Node
	h      *highlight.Highlighter
}

// openSession loads a document, parses its markup and restores the saved
// highlights onto the tree.
func (s *Server) openSession(r *http.Request, docID string) (*docSession, error) {
	doc, err := s.store.GetDocument(r.Context(), docID)
	if err != nil {
		return nil, err
	}
	parsed, err := dom.ParseDocument(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse stored document: %w", err)
	}
	body := parsed.Body()
	h, err := highlight.New(body, s.highlightOptions())
	if err != nil {
		return nil, err
	}
	payload, err := s.store.GetHighlights(r.Context(), docID)
	if err != nil {
		return nil, err
	}
	if payload != "" {
		if _, err := h.Deserialize(payload); err != nil {
			return nil, fmt.Errorf("restore highlights: %w", err)
		}
	}
	return &docSession{doc: doc, parsed: parsed, body: body, h: h}, nil
}

// saveSession persists the session's highlight state.
func (s *Server) saveSession(r *http.Request, sess *docSession) error {
	payload, err := sess.h.Serialize()
	if err != nil {
		return fmt.Errorf("serialize highlights: %w", err)
	}
	return s.store.SaveHighlights(r.Context(), sess.doc.ID, payload)
}

func (s *Server) handleCreateHighlight(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var req createHighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.openSession(r, docID)
	if err != nil {
		s.docError(w, err)
		return
	}

	start, err := resolvePoint(sess.body, req.Start)
	if err != nil {
		jsonError(w, "start: "+err.Error(), http.StatusBadRequest)
		return
	}
	end, err := resolvePoint(sess.body, req.End)
	if err != nil {
		jsonError(w, "end: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Color != "" {
		sess.h.SetColor(req.Color)
	}

	marks := sess.h.HighlightRange(&dom.Range{
		StartContainer: start,
		StartOffset:    req.Start.Offset,
		EndContainer:   end,
		EndOffset:      req.End.Offset,
	})
	if len(marks) == 0 {
		jsonError(w, "range selects no highlightable text", http.StatusUnprocessableEntity)
		return
	}

	if err := s.saveSession(r, sess); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ts, _ := dom.Attr(marks[0], highlight.TimestampAttr)
	var text strings.Builder
	for _, m := range marks {
		text.WriteString(dom.TextContent(m))
	}

	s.publish(EventHighlightCreated, map[string]any{
		"doc_id":       docID,
		"timestamp":    ts,
		"marker_count": len(marks),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":       docID,
		"timestamp":    ts,
		"marker_count": len(marks),
		"text":         text.String(),
	})
}

func (s *Server) handleListHighlights(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.openSession(r, docID)
	if err != nil {
		s.docError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if r.URL.Query().Get("grouped") == "true" {
		groups := sess.h.GroupedHighlights(highlight.Query{})
		out := make([]map[string]any, 0, len(groups))
		for _, g := range groups {
			out = append(out, map[string]any{
				"timestamp":    g.Timestamp,
				"text":         g.Text(),
				"marker_count": len(g.Marks),
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"groups": out, "count": len(out)})
		return
	}

	marks := sess.h.Highlights(highlight.Query{})
	out := make([]map[string]any, 0, len(marks))
	for _, m := range marks {
		ts, _ := dom.Attr(m, highlight.TimestampAttr)
		out = append(out, map[string]any{
			"text":      dom.TextContent(m),
			"timestamp": ts,
		})
	}
	json.NewEncoder(w).Encode(map[string]any{"highlights": out, "count": len(out)})
}

func (s *Server) handleRemoveHighlights(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.openSession(r, docID)
	if err != nil {
		s.docError(w, err)
		return
	}

	var scope *html.Node
	if p := r.URL.Query().Get("path"); p != "" {
		scope, err = resolvePoint(sess.body, rangePoint{Path: p})
	} else if xp := r.URL.Query().Get("xpath"); xp != "" {
		scope, err = resolvePoint(sess.body, rangePoint{XPath: xp})
	}
	if err != nil {
		jsonError(w, "scope: "+err.Error(), http.StatusBadRequest)
		return
	}

	before := len(sess.h.Highlights(highlight.Query{}))
	sess.h.RemoveHighlights(scope)
	removed := before - len(sess.h.Highlights(highlight.Query{}))

	if err := s.saveSession(r, sess); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if removed > 0 {
		s.publish(EventHighlightRemoved, map[string]any{
			"doc_id":       docID,
			"marker_count": removed,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":  docID,
		"removed": removed,
	})
}

func (s *Server) handleFindText(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var req findRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.openSession(r, docID)
	if err != nil {
		s.docError(w, err)
		return
	}

	if req.Color != "" {
		sess.h.SetColor(req.Color)
	}

	marks := sess.h.Find(req.Text, req.CaseSensitive)
	groups := make(map[string]bool)
	for _, m := range marks {
		ts, _ := dom.Attr(m, highlight.TimestampAttr)
		groups[ts] = true
	}

	if err := s.saveSession(r, sess); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if len(marks) > 0 {
		s.publish(EventHighlightCreated, map[string]any{
			"doc_id":       docID,
			"matches":      len(groups),
			"marker_count": len(marks),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":       docID,
		"matches":      len(groups),
		"marker_count": len(marks),
	})
}

func (s *Server) handleExportHighlights(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	if _, err := s.store.GetDocument(r.Context(), docID); err != nil {
		s.docError(w, err)
		return
	}
	payload, err := s.store.GetHighlights(r.Context(), docID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if payload == "" {
		payload = "[]"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", docID+"-highlights.json"))
	io.WriteString(w, payload)
}

func (s *Server) handleImportHighlights(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	payload, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		jsonError(w, "failed to read payload", http.StatusBadRequest)
		return
	}

	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.openSession(r, docID)
	if err != nil {
		s.docError(w, err)
		return
	}

	// Imports are additive: descriptors land on top of the restored state.
	marks, err := sess.h.Deserialize(string(payload))
	if err != nil {
		if errors.Is(err, highlight.ErrParse) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.saveSession(r, sess); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if len(marks) > 0 {
		s.publish(EventHighlightsImported, map[string]any{
			"doc_id":       docID,
			"marker_count": len(marks),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":   docID,
		"imported": len(marks),
	})
}

func (s *Server) docError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) publish(event string, data map[string]any) {
	if s.hub != nil {
		s.hub.Publish(event, data)
	}
}

// resolvePoint locates the node a rangePoint addresses within body.
func resolvePoint(body *html.Node, pt rangePoint) (*html.Node, error) {
	switch {
	case pt.XPath != "":
		n, err := dom.Query(body, pt.XPath)
		if err != nil {
			return nil, fmt.Errorf("xpath %q: %w", pt.XPath, err)
		}
		if n == nil {
			return nil, fmt.Errorf("xpath %q matched nothing", pt.XPath)
		}
		return n, nil
	case pt.Path != "":
		path, err := parseIndexPath(pt.Path)
		if err != nil {
			return nil, err
		}
		n, ok := dom.NodeAtPath(body, path)
		if !ok {
			return nil, fmt.Errorf("path %q is out of range", pt.Path)
		}
		return n, nil
	default:
		return nil, errors.New("a path or xpath is required")
	}
}

func parseIndexPath(s string) ([]int, error) {
	parts := strings.Split(s, ":")
	path := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad path segment %q", part)
		}
		path = append(path, n)
	}
	return path, nil
}
