package documents

import "time"

// Document represents an uploaded document owned by a user. Processed
// flips true only after the full chunk sequence is durably written;
// readers refuse to retrieve or summarize before that.
type Document struct {
	ID               string
	UserID           string
	FileName         string
	OriginalFilename string
	MimeType         string
	SizeBytes        int64
	StorageProvider  string
	StorageKey       string
	PageCount        int
	ChunkCount       int
	Processed        bool
	ProcessedAt      *time.Time
	CreatedAt        time.Time
}
