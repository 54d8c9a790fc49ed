package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botalove/backend/internal/domain/enums"
	"github.com/botalove/backend/internal/domain/rules"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedAction = errors.New("unsupported quota action")
)

type Store interface {
	ConsumeWithLimit(ctx context.Context, tx pgx.Tx, actorID int64, action, dayKey, timezone, tier string, limit int) (int, error)
	GetUsed(ctx context.Context, actorID int64, action, dayKey string) (int, error)
}

type PlanStore interface {
	GetTier(ctx context.Context, actorID int64, at time.Time) (enums.PlanTier, error)
}

type Config struct {
	// TierLimits overrides the built-in per-tier tables; missing tiers fall
	// back to rules.DefaultTierLimits.
	TierLimits      map[enums.PlanTier]rules.TierLimits
	DefaultTimezone string
}

// Result is the outcome of one quota charge. Denial is a result, not an
// error. Remaining is rules.Unlimited when the tier bypasses the ledger.
type Result struct {
	Granted   bool
	Remaining int
	Tier      enums.PlanTier
	ResetAt   time.Time
}

type Snapshot struct {
	Tier           enums.PlanTier
	ViewsRemaining int
	LikesRemaining int
	ResetAt        time.Time
}

// Service tracks per-actor daily action counts. There is no reset job: rows
// are keyed by the actor-local day, so a new day lazily selects fresh state.
type Service struct {
	pool  *pgxpool.Pool
	store Store
	plans PlanStore
	cfg   Config
	now   func() time.Time
	runTx func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

func NewService(pool *pgxpool.Pool, store Store, plans PlanStore, cfg Config) *Service {
	if strings.TrimSpace(cfg.DefaultTimezone) == "" {
		cfg.DefaultTimezone = "UTC"
	}

	s := &Service{
		pool:  pool,
		store: store,
		plans: plans,
		cfg:   cfg,
		now:   time.Now,
	}
	s.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, s.pool, fn)
	}
	return s
}

func (s *Service) CheckAndIncrement(ctx context.Context, actorID int64, action, timezone string) (Result, error) {
	if actorID <= 0 {
		return Result{}, ErrValidation
	}
	if !isKnownAction(action) {
		return Result{}, ErrUnsupportedAction
	}
	if s.store == nil || s.plans == nil {
		return Result{}, fmt.Errorf("quota dependencies are not configured")
	}

	now := s.now().UTC()
	loc, tzName := s.resolveTimezone(timezone)
	dayKey := rules.DayKey(now, loc)
	resetAt := rules.NextResetAt(now, loc)

	tier, err := s.resolveTier(ctx, actorID, now)
	if err != nil {
		return Result{}, err
	}

	result := Result{Tier: tier, ResetAt: resetAt}

	// Unlimited tiers never touch the ledger, so mid-window upgrades take
	// effect on the very next action.
	if rules.IsUnlimitedTier(tier) {
		result.Granted = true
		result.Remaining = rules.Unlimited
		return result, nil
	}

	limit := s.limitFor(tier, action)
	if limit == rules.Unlimited {
		result.Granted = true
		result.Remaining = rules.Unlimited
		return result, nil
	}
	if limit <= 0 {
		result.Granted = false
		result.Remaining = 0
		return result, nil
	}

	err = s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		used, err := s.store.ConsumeWithLimit(txCtx, tx, actorID, action, dayKey, tzName, string(tier), limit)
		if err != nil {
			return err
		}
		result.Granted = true
		result.Remaining = limit - used
		return nil
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrQuotaLimitReached) {
			result.Granted = false
			result.Remaining = 0
			return result, nil
		}
		return Result{}, err
	}

	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}

func (s *Service) GetSnapshot(ctx context.Context, actorID int64, timezone string) (Snapshot, error) {
	if actorID <= 0 {
		return Snapshot{}, ErrValidation
	}
	if s.store == nil || s.plans == nil {
		return Snapshot{}, fmt.Errorf("quota dependencies are not configured")
	}

	now := s.now().UTC()
	loc, _ := s.resolveTimezone(timezone)
	dayKey := rules.DayKey(now, loc)
	resetAt := rules.NextResetAt(now, loc)

	tier, err := s.resolveTier(ctx, actorID, now)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{Tier: tier, ResetAt: resetAt}
	if rules.IsUnlimitedTier(tier) {
		snapshot.ViewsRemaining = rules.Unlimited
		snapshot.LikesRemaining = rules.Unlimited
		return snapshot, nil
	}

	views, err := s.remainingFor(ctx, actorID, rules.QuotaActionProfileView, dayKey, tier)
	if err != nil {
		return Snapshot{}, err
	}
	likes, err := s.remainingFor(ctx, actorID, rules.QuotaActionLike, dayKey, tier)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot.ViewsRemaining = views
	snapshot.LikesRemaining = likes
	return snapshot, nil
}

func (s *Service) remainingFor(ctx context.Context, actorID int64, action, dayKey string, tier enums.PlanTier) (int, error) {
	limit := s.limitFor(tier, action)
	if limit == rules.Unlimited {
		return rules.Unlimited, nil
	}
	if limit <= 0 {
		return 0, nil
	}

	used, err := s.store.GetUsed(ctx, actorID, action, dayKey)
	if err != nil {
		return 0, fmt.Errorf("read daily quota: %w", err)
	}

	left := limit - used
	if left < 0 {
		left = 0
	}
	return left, nil
}

func (s *Service) resolveTier(ctx context.Context, actorID int64, at time.Time) (enums.PlanTier, error) {
	tier, err := s.plans.GetTier(ctx, actorID, at)
	if err != nil {
		return "", fmt.Errorf("resolve plan tier: %w", err)
	}
	if tier == "" {
		tier = enums.PlanTierBronze
	}
	return tier, nil
}

func (s *Service) limitFor(tier enums.PlanTier, action string) int {
	limits, ok := s.cfg.TierLimits[tier]
	if !ok {
		limits = rules.DefaultTierLimits(tier)
	}
	return limits.ForAction(action)
}

func (s *Service) resolveTimezone(explicit string) (*time.Location, string) {
	candidate := strings.TrimSpace(explicit)
	if candidate == "" {
		candidate = strings.TrimSpace(s.cfg.DefaultTimezone)
	}
	if candidate == "" {
		candidate = "UTC"
	}

	loc, err := time.LoadLocation(candidate)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, candidate
}

func isKnownAction(action string) bool {
	switch action {
	case rules.QuotaActionProfileView, rules.QuotaActionLike:
		return true
	default:
		return false
	}
}
