package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botalove/backend/internal/domain/enums"
)

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

// GetTier resolves the actor's current tier. A lapsed or missing subscription
// is bronze, never an error.
func (r *PlanRepo) GetTier(ctx context.Context, actorID int64, at time.Time) (enums.PlanTier, error) {
	if actorID <= 0 {
		return "", fmt.Errorf("invalid actor id")
	}
	if r.pool == nil {
		return enums.PlanTierBronze, nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var tier string
	var expiresAt *time.Time
	err := r.pool.QueryRow(ctx, `
SELECT tier, expires_at
FROM plan_subscriptions
WHERE actor_id = $1
LIMIT 1
`, actorID).Scan(&tier, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return enums.PlanTierBronze, nil
		}
		return "", fmt.Errorf("get plan subscription: %w", err)
	}

	if expiresAt == nil || !expiresAt.After(at.UTC()) {
		return enums.PlanTierBronze, nil
	}

	parsed, ok := enums.ParsePlanTier(tier)
	if !ok {
		return enums.PlanTierBronze, nil
	}
	return parsed, nil
}

// Extend upgrades or prolongs the subscription. Extending the same tier adds
// to the remaining time; switching tiers starts a fresh window at `now`.
func (r *PlanRepo) Extend(ctx context.Context, tx pgx.Tx, actorID int64, tier enums.PlanTier, duration time.Duration, now time.Time) error {
	if actorID <= 0 || tier == "" || duration <= 0 {
		return fmt.Errorf("invalid plan extend payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO plan_subscriptions (
	actor_id,
	tier,
	expires_at,
	updated_at
) VALUES ($1, $2, $3::timestamptz + make_interval(secs => $4), NOW())
ON CONFLICT (actor_id) DO UPDATE SET
	expires_at = CASE
		WHEN plan_subscriptions.tier = EXCLUDED.tier
			AND plan_subscriptions.expires_at IS NOT NULL
			AND plan_subscriptions.expires_at > $3::timestamptz
			THEN plan_subscriptions.expires_at + make_interval(secs => $4)
		ELSE $3::timestamptz + make_interval(secs => $4)
	END,
	tier = EXCLUDED.tier,
	updated_at = NOW()
`, actorID, string(tier), now.UTC(), duration.Seconds()); err != nil {
		return fmt.Errorf("extend plan subscription: %w", err)
	}

	return nil
}
