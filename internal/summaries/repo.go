package summaries

import "context"

// Repo defines persistence operations for summaries. Create only
// appends; older rows stay for audit.
type Repo interface {
	Create(ctx context.Context, summary Summary) error
	LatestByMode(ctx context.Context, userID, documentID string, mode Mode) (Summary, error)
}
