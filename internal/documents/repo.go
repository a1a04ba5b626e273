package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	GetCurrentByUser(ctx context.Context, userID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	// MarkProcessed records page and chunk counts and flips the
	// processed flag, after ingestion wrote all chunks.
	MarkProcessed(ctx context.Context, userID, documentID string, pageCount, chunkCount int, processedAt time.Time) error
}
