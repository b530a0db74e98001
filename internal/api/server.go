package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Brakebein/texthighlighter/internal/config"
	"github.com/Brakebein/texthighlighter/internal/pipeline"
	"github.com/Brakebein/texthighlighter/internal/store"
)

// Server is the HTTP API server for the annotation service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	hub          *Hub
	log          *slog.Logger
	cfg          config.Config

	// Per-document locks serialize highlight mutations, which are
	// load-modify-save cycles over the stored payload.
	docLocks sync.Map
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, st *store.Store, hub *Hub, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        st,
		hub:          hub,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Post("/api/documents/{docID}/highlights", s.handleCreateHighlight)
		r.Get("/api/documents/{docID}/highlights", s.handleListHighlights)
		r.Delete("/api/documents/{docID}/highlights", s.handleRemoveHighlights)
		r.Get("/api/documents/{docID}/highlights/export", s.handleExportHighlights)
		r.Put("/api/documents/{docID}/highlights/import", s.handleImportHighlights)
		r.Post("/api/documents/{docID}/find", s.handleFindText)

		r.Get("/api/events", s.handleEvents)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// docLock returns the mutex guarding one document's highlight state.
func (s *Server) docLock(docID string) *sync.Mutex {
	v, _ := s.docLocks.LoadOrStore(docID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
