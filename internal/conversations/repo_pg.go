package conversations

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGRepo implements Repo using Postgres. Grounded chunk indices are
// stored as a JSON array alongside the turn.
type PGRepo struct {
	DB *sql.DB
}

const insertTurn = `
INSERT INTO conversation_turns (id, document_id, user_id, role, content, grounded_chunks, confidence, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// AppendExchange inserts both turns in one transaction.
func (r *PGRepo) AppendExchange(ctx context.Context, userTurn, assistantTurn Turn) error {
	if err := validateExchange(userTurn, assistantTurn); err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, turn := range []Turn{userTurn, assistantTurn} {
		var grounded sql.NullString
		if turn.GroundedChunks != nil {
			raw, marshalErr := json.Marshal(turn.GroundedChunks)
			if marshalErr != nil {
				err = marshalErr
				return err
			}
			grounded = sql.NullString{String: string(raw), Valid: true}
		}
		var confidence sql.NullFloat64
		if turn.Confidence != nil {
			confidence = sql.NullFloat64{Float64: *turn.Confidence, Valid: true}
		}
		if _, err = tx.ExecContext(ctx, insertTurn,
			turn.ID,
			turn.DocumentID,
			turn.UserID,
			turn.Role,
			turn.Content,
			grounded,
			confidence,
			turn.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByDocument returns the user's turns in ascending timestamp order.
func (r *PGRepo) ListByDocument(ctx context.Context, userID, documentID string, limit, offset int) ([]Turn, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, document_id, user_id, role, content, grounded_chunks, confidence, created_at
FROM conversation_turns
WHERE user_id = $1 AND document_id = $2
ORDER BY created_at ASC, id ASC
LIMIT $3 OFFSET $4`
	rows, err := r.DB.QueryContext(ctx, query, userID, documentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var turn Turn
		var grounded sql.NullString
		var confidence sql.NullFloat64
		if err := rows.Scan(
			&turn.ID,
			&turn.DocumentID,
			&turn.UserID,
			&turn.Role,
			&turn.Content,
			&grounded,
			&confidence,
			&turn.CreatedAt,
		); err != nil {
			return nil, err
		}
		if grounded.Valid {
			if err := json.Unmarshal([]byte(grounded.String), &turn.GroundedChunks); err != nil {
				return nil, err
			}
		}
		if confidence.Valid {
			value := confidence.Float64
			turn.Confidence = &value
		}
		out = append(out, turn)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
