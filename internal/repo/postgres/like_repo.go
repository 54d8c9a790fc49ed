package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

// Upsert keeps the latest standing decision for the ordered pair. A later
// super-like never downgrades back to a plain like.
func (r *LikeRepo) Upsert(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64, isSuperLike bool) error {
	if fromUserID <= 0 || toUserID <= 0 {
		return fmt.Errorf("invalid like payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO likes (
	from_user_id,
	to_user_id,
	is_super_like,
	created_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (from_user_id, to_user_id) DO UPDATE SET
	is_super_like = likes.is_super_like OR EXCLUDED.is_super_like,
	created_at = NOW()
`, fromUserID, toUserID, isSuperLike); err != nil {
		return fmt.Errorf("upsert like: %w", err)
	}

	return nil
}

// Exists reports whether a standing like is recorded for the ordered pair.
// A nil tx reads through the pool.
func (r *LikeRepo) Exists(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64) (bool, error) {
	if fromUserID <= 0 || toUserID <= 0 {
		return false, fmt.Errorf("invalid like lookup payload")
	}

	var row pgx.Row
	query := `
SELECT 1
FROM likes
WHERE from_user_id = $1 AND to_user_id = $2
LIMIT 1
`
	if tx != nil {
		row = tx.QueryRow(ctx, query, fromUserID, toUserID)
	} else {
		if r.pool == nil {
			return false, fmt.Errorf("postgres pool is nil")
		}
		row = r.pool.QueryRow(ctx, query, fromUserID, toUserID)
	}

	var one int
	err := row.Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup like: %w", err)
	}

	return true, nil
}

func (r *LikeRepo) Delete(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64) (bool, error) {
	if fromUserID <= 0 || toUserID <= 0 {
		return false, fmt.Errorf("invalid like delete payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM likes
WHERE from_user_id = $1 AND to_user_id = $2
`, fromUserID, toUserID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
