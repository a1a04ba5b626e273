package chunks

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// ReplaceAll replaces the chunk sequence inside a single transaction so
// concurrent readers see either the old sequence or the new one.
func (r *PGRepo) ReplaceAll(ctx context.Context, documentID string, list []Chunk) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return err
	}

	const insert = `
INSERT INTO document_chunks (document_id, chunk_index, page, content)
VALUES ($1, $2, $3, $4)`
	for _, c := range list {
		if _, err = tx.ExecContext(ctx, insert, documentID, c.Index, c.Page, c.Content); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByDocument returns the ordered chunk sequence for a document.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Chunk, error) {
	const query = `
SELECT document_id, chunk_index, page, content
FROM document_chunks
WHERE document_id = $1
ORDER BY chunk_index ASC`
	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.DocumentID, &c.Index, &c.Page, &c.Content); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoChunks
	}
	return out, nil
}

// CountByDocument returns the number of stored chunks.
func (r *PGRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`, documentID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

var _ Repo = (*PGRepo)(nil)
