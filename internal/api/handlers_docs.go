package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Brakebein/texthighlighter/dom"
	"github.com/Brakebein/texthighlighter/highlight"
	"github.com/Brakebein/texthighlighter/internal/store"
)

// handleListDocuments lists stored documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleGetDocument returns one document. With ?annotated=true the HTML
// has the stored highlights applied.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	doc, err := s.store.GetDocument(r.Context(), docID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to load document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	highlightCount := 0
	if r.URL.Query().Get("annotated") == "true" {
		annotated, n, err := s.annotatedHTML(r, doc)
		if err != nil {
			jsonError(w, "failed to apply highlights: "+err.Error(), http.StatusInternalServerError)
			return
		}
		doc.HTML = annotated
		highlightCount = n
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document":        doc,
		"highlight_count": highlightCount,
	})
}

// annotatedHTML re-applies the stored highlight payload to the document
// markup and renders the result.
func (s *Server) annotatedHTML(r *http.Request, doc *store.Document) (string, int, error) {
	payload, err := s.store.GetHighlights(r.Context(), doc.ID)
	if err != nil {
		return "", 0, err
	}
	if payload == "" {
		return doc.HTML, 0, nil
	}

	parsed, err := dom.ParseDocument(strings.NewReader(doc.HTML))
	if err != nil {
		return "", 0, err
	}
	h, err := highlight.New(parsed.Body(), s.highlightOptions())
	if err != nil {
		return "", 0, err
	}
	marks, err := h.Deserialize(payload)
	if err != nil {
		return "", 0, err
	}
	h.Destroy()

	html, err := parsed.Render()
	if err != nil {
		return "", 0, err
	}
	return html, len(marks), nil
}

// handleDeleteDocument removes a document and its highlights.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.DeleteDocument(r.Context(), docID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": docID})
}

// highlightOptions builds the highlighter options from server config.
func (s *Server) highlightOptions() highlight.Options {
	return highlight.Options{
		Color:            s.cfg.DefaultColor,
		HighlightedClass: s.cfg.HighlightedClass,
		ContextClass:     s.cfg.ContextClass,
		Logger:           s.log,
	}
}
