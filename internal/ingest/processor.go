package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/chunks"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/extract"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/storage/object"
	"docchat-backend/internal/shared/telemetry"
)

const (
	// DefaultChunkTarget is the preferred chunk length in runes.
	DefaultChunkTarget = 1200
	// DefaultChunkOverlap is how many runes consecutive chunks share.
	DefaultChunkOverlap = 200
)

// Processor turns a stored document into its durable chunk sequence.
type Processor struct {
	Store   object.ObjectStore
	Docs    documents.Repo
	Chunks  chunks.Repo
	Target  int
	Overlap int
}

func (p *Processor) chunkParams() (int, int) {
	target, overlap := p.Target, p.Overlap
	if target <= 0 {
		target = DefaultChunkTarget
	}
	if overlap <= 0 || overlap >= target {
		overlap = DefaultChunkOverlap
		if overlap >= target {
			overlap = target / 4
		}
	}
	return target, overlap
}

// Process extracts text from the stored object, chunks it, writes the
// full sequence, and marks the document processed. Reprocessing an
// already-processed document is a no-op.
func (p *Processor) Process(ctx context.Context, userID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	metrics.IncIngestStarted()

	doc, err := p.Docs.GetByID(ctx, userID, documentID)
	if err != nil {
		metrics.IncIngestFailed()
		return fmt.Errorf("ingest document %s: %w", documentID, err)
	}
	if doc.Processed {
		telemetry.Info("ingest skipped, already processed", map[string]any{
			"documentId": documentID,
			"requestId":  requestIDFromContext(ctx),
		})
		metrics.IncIngestCompleted()
		return nil
	}

	res, err := extract.FromStore(ctx, p.Store, doc.StorageKey, doc.MimeType, doc.FileName)
	if err != nil {
		metrics.IncIngestFailed()
		return fmt.Errorf("ingest document %s: %w", documentID, err)
	}

	if err := p.ingestText(ctx, doc, res.Text, res.PageCount); err != nil {
		metrics.IncIngestFailed()
		return err
	}

	metrics.IncIngestCompleted()
	metrics.ObserveIngestDurationMs(float64(time.Since(started).Milliseconds()))
	return nil
}

// IngestText records a document whose text was extracted elsewhere and
// chunks it directly, bypassing object storage. The text may carry
// page-break markers; page count is derived from them.
func (p *Processor) IngestText(ctx context.Context, userID, fileName, text string) (documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return documents.Document{}, err
	}
	if userID == "" || strings.TrimSpace(text) == "" {
		return documents.Document{}, documents.ErrInvalidInput
	}
	if fileName == "" {
		fileName = "ingested.txt"
	}

	doc := documents.Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  fileName,
		MimeType:  "text/plain",
		SizeBytes: int64(len(text)),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.Docs.Create(ctx, doc); err != nil {
		return documents.Document{}, err
	}

	pageCount := strings.Count(text, string(chunks.PageBreak)) + 1
	if err := p.ingestText(ctx, doc, text, pageCount); err != nil {
		return documents.Document{}, err
	}
	return p.Docs.GetByID(ctx, userID, doc.ID)
}

func (p *Processor) ingestText(ctx context.Context, doc documents.Document, text string, pageCount int) error {
	target, overlap := p.chunkParams()
	list, err := chunks.Split(doc.ID, text, target, overlap)
	if err != nil {
		return fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}

	if err := p.Chunks.ReplaceAll(ctx, doc.ID, list); err != nil {
		return fmt.Errorf("store chunks for document %s: %w", doc.ID, err)
	}

	if err := p.Docs.MarkProcessed(ctx, doc.UserID, doc.ID, pageCount, len(list), time.Now().UTC()); err != nil {
		return fmt.Errorf("mark document %s processed: %w", doc.ID, err)
	}

	telemetry.Info("document ingested", map[string]any{
		"documentId": doc.ID,
		"pageCount":  pageCount,
		"chunkCount": len(list),
		"requestId":  requestIDFromContext(ctx),
	})
	return nil
}
