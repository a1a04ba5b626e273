package chunks

import "context"

// Repo defines persistence operations for document chunks.
type Repo interface {
	// ReplaceAll atomically replaces the chunk sequence for a document.
	// Readers never observe a partially written sequence.
	ReplaceAll(ctx context.Context, documentID string, list []Chunk) error
	// ListByDocument returns the ordered chunk sequence. ErrNoChunks when
	// nothing has been written for the document.
	ListByDocument(ctx context.Context, documentID string) ([]Chunk, error)
	CountByDocument(ctx context.Context, documentID string) (int, error)
}
