package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Brakebein/texthighlighter/internal/ingest"
	"github.com/Brakebein/texthighlighter/internal/store"
)

// EventDocumentIngested is published when a job stores a new document.
const EventDocumentIngested = "document.ingested"

// Publisher broadcasts pipeline events to interested subscribers.
type Publisher interface {
	Publish(event string, data map[string]any)
}

// Worker processes a single document job.
type Worker struct {
	store  *store.Store
	events Publisher
	log    *slog.Logger

	pdfFallback bool
}

func NewWorker(st *store.Store, events Publisher, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{
		store:       st,
		events:      events,
		log:         log,
		pdfFallback: pdfFallback,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := ingest.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if pdf, ok := p.(*ingest.PDFParser); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	title := doc.Title
	if job.Title != "" {
		title = job.Title
	}

	// Phase 2: Render the annotatable HTML and hash it for dedup.
	job.SetStatus(StatusRendering, "rendering")
	html, err := doc.Render()
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "rendering")
		return
	}
	hash := ContentHashHex([]byte(html))
	job.SetContentHash(hash)

	// Phase 2.5: Dedup check
	existingID, err := w.store.FindByHash(ctx, hash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if existingID != "" {
		log.Info("duplicate document, skipping", "existing_doc_id", existingID)
		job.SetDocID(existingID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	now := time.Now()
	err = w.store.PutDocument(ctx, &store.Document{
		ID:          job.DocID,
		Title:       title,
		Filename:    job.Filename,
		ContentHash: hash,
		HTML:        html,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   now,
	})
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("document ingested", "title", title, "bytes", len(html))

	if w.events != nil {
		w.events.Publish(EventDocumentIngested, map[string]any{
			"doc_id":   job.DocID,
			"job_id":   job.ID,
			"title":    title,
			"filename": job.Filename,
		})
	}
}
