package summaries

import "time"

// Summary is one generated synopsis. History is append-only; the newest
// row per (document, mode) is the authoritative latest view.
type Summary struct {
	ID         string    `json:"summaryId"`
	DocumentID string    `json:"documentId"`
	UserID     string    `json:"-"`
	Mode       Mode      `json:"mode"`
	Content    string    `json:"content"`
	WordCount  int       `json:"wordCount"`
	CreatedAt  time.Time `json:"createdAt"`
}
