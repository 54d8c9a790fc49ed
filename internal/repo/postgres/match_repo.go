package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepo struct {
	pool *pgxpool.Pool
}

type MatchRecord struct {
	ID        int64
	UserAID   int64
	UserBID   int64
	ChatID    string
	CreatedAt time.Time
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// CreateIfMutualLike checks the reciprocal like and, when present, inserts the
// match and its chat in the same transaction. The unordered-pair unique index
// plus ON CONFLICT DO NOTHING makes concurrent callers converge on one match:
// the loser of the race reads the winner's row and reports created=false.
func (r *MatchRepo) CreateIfMutualLike(ctx context.Context, tx pgx.Tx, userID, targetID int64, chatID string) (MatchRecord, bool, error) {
	if userID <= 0 || targetID <= 0 || strings.TrimSpace(chatID) == "" {
		return MatchRecord{}, false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return MatchRecord{}, false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM likes
WHERE from_user_id = $1 AND to_user_id = $2
LIMIT 1
`, targetID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MatchRecord{}, false, nil
		}
		return MatchRecord{}, false, fmt.Errorf("lookup reciprocal like: %w", err)
	}

	userA, userB := orderPair(userID, targetID)

	var rec MatchRecord
	err = tx.QueryRow(ctx, `
INSERT INTO matches (
	user_a_id,
	user_b_id,
	chat_id,
	created_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id, user_a_id, user_b_id, chat_id, created_at
`, userA, userB, chatID).Scan(
		&rec.ID,
		&rec.UserAID,
		&rec.UserBID,
		&rec.ChatID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, lookupErr := r.getByPairTx(ctx, tx, userA, userB)
			if lookupErr != nil {
				return MatchRecord{}, false, lookupErr
			}
			return existing, false, nil
		}
		return MatchRecord{}, false, fmt.Errorf("create match: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO chats (
	id,
	match_id,
	created_at
) VALUES ($1, $2, NOW())
ON CONFLICT (id) DO NOTHING
`, rec.ChatID, rec.ID); err != nil {
		return MatchRecord{}, false, fmt.Errorf("create chat for match: %w", err)
	}

	return rec, true, nil
}

func (r *MatchRepo) GetByUsers(ctx context.Context, userID, targetID int64) (MatchRecord, error) {
	if userID <= 0 || targetID <= 0 {
		return MatchRecord{}, fmt.Errorf("invalid match lookup payload")
	}
	if r.pool == nil {
		return MatchRecord{}, ErrMatchNotFound
	}

	userA, userB := orderPair(userID, targetID)

	var rec MatchRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, user_a_id, user_b_id, chat_id, created_at
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
LIMIT 1
`, userA, userB).Scan(
		&rec.ID,
		&rec.UserAID,
		&rec.UserBID,
		&rec.ChatID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MatchRecord{}, ErrMatchNotFound
		}
		return MatchRecord{}, fmt.Errorf("get match by users: %w", err)
	}

	return rec, nil
}

func (r *MatchRepo) DeleteByUsers(ctx context.Context, tx pgx.Tx, userID, targetID int64) (bool, error) {
	if userID <= 0 || targetID <= 0 {
		return false, fmt.Errorf("invalid match delete payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	userA, userB := orderPair(userID, targetID)

	result, err := tx.Exec(ctx, `
DELETE FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
`, userA, userB)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *MatchRepo) getByPairTx(ctx context.Context, tx pgx.Tx, userA, userB int64) (MatchRecord, error) {
	var rec MatchRecord
	err := tx.QueryRow(ctx, `
SELECT id, user_a_id, user_b_id, chat_id, created_at
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
LIMIT 1
`, userA, userB).Scan(
		&rec.ID,
		&rec.UserAID,
		&rec.UserBID,
		&rec.ChatID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MatchRecord{}, ErrMatchNotFound
		}
		return MatchRecord{}, fmt.Errorf("get match in tx: %w", err)
	}
	return rec, nil
}

func orderPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
