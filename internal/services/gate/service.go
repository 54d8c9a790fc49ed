package gate

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
	ErrValidation         = errors.New("validation error")
	ErrConcurrentConflict = errors.New("concurrent entitlement conflict")
)

// Denial reasons carried on a Decision. A denied Decision is a normal
// outcome, never an error.
const (
	ReasonQuotaExhausted = "QUOTA_EXHAUSTED"
	ReasonInventoryEmpty = "INVENTORY_EMPTY"
)

const (
	ChargedFromNone      = "none"
	ChargedFromQuota     = "quota"
	ChargedFromInventory = "inventory"
)

type costKind int

const (
	costFree costKind = iota
	costQuota
	costInventory
)

type Cost struct {
	kind        costKind
	quotaAction string
	item        enums.ItemType
	quantity    int
}

func Free() Cost {
	return Cost{kind: costFree}
}

func QuotaCost(action string) Cost {
	return Cost{kind: costQuota, quotaAction: action}
}

func InventoryCost(item enums.ItemType, quantity int) Cost {
	return Cost{kind: costInventory, item: item, quantity: quantity}
}

type Action struct {
	Name string
	Cost Cost
}

// Decision is the gate verdict for one action. Remaining is the balance left
// after the charge; rules.Unlimited when the actor's tier bypasses the ledger.
type Decision struct {
	Granted     bool
	Reason      string
	ChargedFrom string
	Remaining   int
	Tier        enums.PlanTier
}

type QuotaStore interface {
	ConsumeWithLimit(ctx context.Context, tx pgx.Tx, actorID int64, action, dayKey, timezone, tier string, limit int) (int, error)
}

type InventoryStore interface {
	Consume(ctx context.Context, tx pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error)
}

type PlanStore interface {
	GetTier(ctx context.Context, actorID int64, at time.Time) (enums.PlanTier, error)
}

type Config struct {
	TierLimits      map[enums.PlanTier]rules.TierLimits
	DefaultTimezone string
	ConflictRetries int
}

type Dependencies struct {
	Pool       *pgxpool.Pool
	QuotaStore QuotaStore
	Inventory  InventoryStore
	PlanStore  PlanStore

	// TxRunner overrides how the charge transaction is run; nil means a
	// regular pool transaction.
	TxRunner func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

// Service is the single chokepoint for chargeable actions. The charge and
// the caller's domain effect run in one transaction, so a failed effect rolls
// the charge back and a denied charge never leaves a partial effect behind.
type Service struct {
	pool      *pgxpool.Pool
	quotas    QuotaStore
	inventory InventoryStore
	plans     PlanStore
	cfg       Config
	now       func() time.Time
	runTx     func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

func NewService(deps Dependencies, cfg Config) *Service {
	if strings.TrimSpace(cfg.DefaultTimezone) == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}

	s := &Service{
		pool:      deps.Pool,
		quotas:    deps.QuotaStore,
		inventory: deps.Inventory,
		plans:     deps.PlanStore,
		cfg:       cfg,
		now:       time.Now,
	}
	s.runTx = deps.TxRunner
	if s.runTx == nil {
		s.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, s.pool, fn)
		}
	}
	return s
}

// Authorize charges the action's cost without any domain effect.
func (s *Service) Authorize(ctx context.Context, actorID int64, action Action, timezone string) (Decision, error) {
	return s.AuthorizeAndDo(ctx, actorID, action, timezone, nil)
}

// AuthorizeAndDo charges the cost and runs effect inside the same
// transaction. Serialization conflicts are retried a bounded number of times;
// past the budget the caller gets ErrConcurrentConflict with nothing applied.
func (s *Service) AuthorizeAndDo(ctx context.Context, actorID int64, action Action, timezone string, effect func(ctx context.Context, tx pgx.Tx) error) (Decision, error) {
	if actorID <= 0 {
		return Decision{}, ErrValidation
	}
	if err := validateCost(action.Cost); err != nil {
		return Decision{}, err
	}
	if s.quotas == nil || s.inventory == nil || s.plans == nil {
		return Decision{}, fmt.Errorf("gate dependencies are not configured")
	}

	now := s.now().UTC()
	tier, err := s.plans.GetTier(ctx, actorID, now)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve plan tier: %w", err)
	}
	if tier == "" {
		tier = enums.PlanTierBronze
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.ConflictRetries; attempt++ {
		decision, err := s.attempt(ctx, actorID, tier, action, timezone, now, effect)
		if err == nil || !pgrepo.IsSerializationConflict(err) {
			return decision, err
		}
		lastErr = err
	}

	return Decision{}, fmt.Errorf("%w: %v", ErrConcurrentConflict, lastErr)
}

func (s *Service) attempt(ctx context.Context, actorID int64, tier enums.PlanTier, action Action, timezone string, now time.Time, effect func(ctx context.Context, tx pgx.Tx) error) (Decision, error) {
	decision := Decision{Tier: tier}

	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		charged, err := s.charge(txCtx, tx, actorID, tier, action.Cost, timezone, now)
		if err != nil {
			return err
		}
		decision = charged
		decision.Tier = tier

		if effect != nil {
			if err := effect(txCtx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrQuotaLimitReached):
			return Decision{Granted: false, Reason: ReasonQuotaExhausted, ChargedFrom: ChargedFromNone, Tier: tier}, nil
		case errors.Is(err, pgrepo.ErrInventoryEmpty):
			return Decision{Granted: false, Reason: ReasonInventoryEmpty, ChargedFrom: ChargedFromNone, Tier: tier}, nil
		default:
			return Decision{}, err
		}
	}

	return decision, nil
}

func (s *Service) charge(ctx context.Context, tx pgx.Tx, actorID int64, tier enums.PlanTier, cost Cost, timezone string, now time.Time) (Decision, error) {
	switch cost.kind {
	case costFree:
		return Decision{Granted: true, ChargedFrom: ChargedFromNone, Remaining: rules.Unlimited}, nil

	case costQuota:
		if rules.IsUnlimitedTier(tier) {
			return Decision{Granted: true, ChargedFrom: ChargedFromNone, Remaining: rules.Unlimited}, nil
		}
		limit := s.limitFor(tier, cost.quotaAction)
		if limit == rules.Unlimited {
			return Decision{Granted: true, ChargedFrom: ChargedFromNone, Remaining: rules.Unlimited}, nil
		}
		if limit <= 0 {
			return Decision{}, pgrepo.ErrQuotaLimitReached
		}

		loc, tzName := s.resolveTimezone(timezone)
		dayKey := rules.DayKey(now, loc)
		used, err := s.quotas.ConsumeWithLimit(ctx, tx, actorID, cost.quotaAction, dayKey, tzName, string(tier), limit)
		if err != nil {
			return Decision{}, err
		}
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		return Decision{Granted: true, ChargedFrom: ChargedFromQuota, Remaining: remaining}, nil

	case costInventory:
		remaining, err := s.inventory.Consume(ctx, tx, actorID, cost.item, cost.quantity)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Granted: true, ChargedFrom: ChargedFromInventory, Remaining: remaining}, nil

	default:
		return Decision{}, ErrValidation
	}
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

func validateCost(cost Cost) error {
	switch cost.kind {
	case costFree:
		return nil
	case costQuota:
		if strings.TrimSpace(cost.quotaAction) == "" {
			return ErrValidation
		}
		return nil
	case costInventory:
		if cost.item == "" || cost.quantity <= 0 {
			return ErrValidation
		}
		return nil
	default:
		return ErrValidation
	}
}
