package conversations

import "context"

// Repo defines persistence operations for conversation turns.
type Repo interface {
	// AppendExchange atomically appends a user turn and the assistant
	// turn answering it. Either both land or neither does, so the log
	// never holds an unanswered half of an exchange from this path.
	AppendExchange(ctx context.Context, userTurn, assistantTurn Turn) error
	// ListByDocument returns turns in ascending timestamp order.
	ListByDocument(ctx context.Context, userID, documentID string, limit, offset int) ([]Turn, error)
}
