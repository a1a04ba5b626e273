package summaries

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create appends a summary row.
func (r *PGRepo) Create(ctx context.Context, summary Summary) error {
	const query = `
INSERT INTO summaries (id, document_id, user_id, mode, content, word_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		summary.ID,
		summary.DocumentID,
		summary.UserID,
		string(summary.Mode),
		summary.Content,
		summary.WordCount,
		summary.CreatedAt,
	)
	return err
}

// LatestByMode returns the newest summary for (document, mode).
func (r *PGRepo) LatestByMode(ctx context.Context, userID, documentID string, mode Mode) (Summary, error) {
	const query = `
SELECT id, document_id, user_id, mode, content, word_count, created_at
FROM summaries
WHERE user_id = $1 AND document_id = $2 AND mode = $3
ORDER BY created_at DESC, id DESC
LIMIT 1`
	var s Summary
	var rawMode string
	err := r.DB.QueryRowContext(ctx, query, userID, documentID, string(mode)).Scan(
		&s.ID,
		&s.DocumentID,
		&s.UserID,
		&rawMode,
		&s.Content,
		&s.WordCount,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, ErrNotFound
		}
		return Summary{}, err
	}
	s.Mode = Mode(rawMode)
	return s, nil
}

var _ Repo = (*PGRepo)(nil)
