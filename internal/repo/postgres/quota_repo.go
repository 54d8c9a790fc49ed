package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrQuotaLimitReached = errors.New("daily quota limit reached")

type QuotaRepo struct {
	pool *pgxpool.Pool
}

func NewQuotaRepo(pool *pgxpool.Pool) *QuotaRepo {
	return &QuotaRepo{pool: pool}
}

// ConsumeWithLimit bumps the day counter only while it is below the limit.
// The day key in the primary key is the lazy reset: a new local day selects a
// fresh row starting at zero.
func (r *QuotaRepo) ConsumeWithLimit(ctx context.Context, tx pgx.Tx, actorID int64, action, dayKey, timezone, tier string, limit int) (int, error) {
	if actorID <= 0 || strings.TrimSpace(action) == "" || strings.TrimSpace(dayKey) == "" || limit <= 0 {
		return 0, fmt.Errorf("invalid quota consume payload")
	}
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(timezone) == "" {
		timezone = "UTC"
	}

	var used int
	err := tx.QueryRow(ctx, `
INSERT INTO quotas_daily (
	actor_id,
	day_key,
	action,
	tz_name,
	tier_at_use,
	used,
	updated_at
) VALUES ($1, $2::date, $3, $4, $5, 1, NOW())
ON CONFLICT (actor_id, day_key, action) DO UPDATE SET
	used = quotas_daily.used + 1,
	tz_name = EXCLUDED.tz_name,
	tier_at_use = EXCLUDED.tier_at_use,
	updated_at = NOW()
WHERE quotas_daily.used < $6
RETURNING used
`, actorID, dayKey, action, timezone, tier, limit).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrQuotaLimitReached
		}
		return 0, fmt.Errorf("consume daily quota: %w", err)
	}

	return used, nil
}

func (r *QuotaRepo) GetUsed(ctx context.Context, actorID int64, action, dayKey string) (int, error) {
	if actorID <= 0 || strings.TrimSpace(action) == "" || strings.TrimSpace(dayKey) == "" {
		return 0, fmt.Errorf("invalid quota lookup payload")
	}
	if r.pool == nil {
		return 0, nil
	}

	var used int
	err := r.pool.QueryRow(ctx, `
SELECT used
FROM quotas_daily
WHERE actor_id = $1 AND day_key = $2::date AND action = $3
LIMIT 1
`, actorID, dayKey, action).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get daily quota usage: %w", err)
	}

	return used, nil
}

func (r *QuotaRepo) Refund(ctx context.Context, tx pgx.Tx, actorID int64, action, dayKey string) error {
	if actorID <= 0 || strings.TrimSpace(action) == "" || strings.TrimSpace(dayKey) == "" {
		return fmt.Errorf("invalid quota refund payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
UPDATE quotas_daily
SET
	used = GREATEST(used - 1, 0),
	updated_at = NOW()
WHERE actor_id = $1 AND day_key = $2::date AND action = $3
`, actorID, dayKey, action); err != nil {
		return fmt.Errorf("refund daily quota: %w", err)
	}

	return nil
}
