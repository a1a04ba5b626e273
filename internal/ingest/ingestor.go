package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/queue"
)

// InlineIngestor runs the processor synchronously in the upload path.
// Used when no queue backend is configured.
type InlineIngestor struct {
	Proc *Processor
}

// Enqueue processes the document immediately.
func (i *InlineIngestor) Enqueue(ctx context.Context, userID, documentID string) error {
	return i.Proc.Process(ctx, userID, documentID)
}

// QueueIngestor defers processing to a queue consumer.
type QueueIngestor struct {
	Client queue.Client
}

// Enqueue publishes an ingestion message for the worker.
func (q *QueueIngestor) Enqueue(ctx context.Context, userID, documentID string) error {
	msg := queue.Message{
		DocumentID: documentID,
		UserID:     userID,
		RequestID:  uuid.NewString(),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := q.Client.Send(ctx, msg); err != nil {
		return fmt.Errorf("enqueue ingest for document %s: %w", documentID, err)
	}
	return nil
}

var (
	_ documents.Ingestor = (*InlineIngestor)(nil)
	_ documents.Ingestor = (*QueueIngestor)(nil)
)
