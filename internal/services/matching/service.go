package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/botalove/backend/internal/domain/enums"
	"github.com/botalove/backend/internal/domain/rules"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
	gatesvc "github.com/botalove/backend/internal/services/gate"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnsupportedKind = errors.New("unsupported decision kind")
	ErrNothingToUndo   = errors.New("no decisions to undo")
)

type SwipeStore interface {
	Create(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64, kind string, now time.Time) (pgrepo.SwipeRecord, error)
	GetLastByActor(ctx context.Context, tx pgx.Tx, actorUserID int64) (pgrepo.SwipeRecord, error)
	DeleteByID(ctx context.Context, tx pgx.Tx, swipeID int64) error
}

type LikeStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64, isSuperLike bool) error
	Exists(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64) (bool, error)
	Delete(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64) (bool, error)
}

type MatchStore interface {
	CreateIfMutualLike(ctx context.Context, tx pgx.Tx, userID, targetID int64, chatID string) (pgrepo.MatchRecord, bool, error)
	GetByUsers(ctx context.Context, userID, targetID int64) (pgrepo.MatchRecord, error)
	DeleteByUsers(ctx context.Context, tx pgx.Tx, userID, targetID int64) (bool, error)
}

type QuotaStore interface {
	Refund(ctx context.Context, tx pgx.Tx, actorID int64, action, dayKey string) error
}

type InventoryStore interface {
	Grant(ctx context.Context, tx pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error)
}

type Gate interface {
	AuthorizeAndDo(ctx context.Context, actorID int64, action gatesvc.Action, timezone string, effect func(ctx context.Context, tx pgx.Tx) error) (gatesvc.Decision, error)
}

type Config struct {
	DefaultTimezone string
}

// DecisionResult reports one recorded swipe. When the charge is denied the
// result carries the denial and nothing was recorded.
type DecisionResult struct {
	Charge  gatesvc.Decision
	IsMatch bool
	MatchID int64
	ChatID  string
}

type UndoResult struct {
	Charge         gatesvc.Decision
	UndoneKind     enums.SwipeKind
	UndoneTargetID int64
}

type Dependencies struct {
	SwipeStore SwipeStore
	LikeStore  LikeStore
	MatchStore MatchStore
	QuotaStore QuotaStore
	Inventory  InventoryStore
	Gate       Gate
}

// Service records swipe decisions and derives matches. A mutual like creates
// exactly one match with exactly one chat; both sides observe the same pair
// no matter who completed it.
type Service struct {
	swipes    SwipeStore
	likes     LikeStore
	matches   MatchStore
	quotas    QuotaStore
	inventory InventoryStore
	gate      Gate
	cfg       Config
	now       func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if strings.TrimSpace(cfg.DefaultTimezone) == "" {
		cfg.DefaultTimezone = "UTC"
	}

	return &Service{
		swipes:    deps.SwipeStore,
		likes:     deps.LikeStore,
		matches:   deps.MatchStore,
		quotas:    deps.QuotaStore,
		inventory: deps.Inventory,
		gate:      deps.Gate,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *Service) RecordDecision(ctx context.Context, actorID, targetID int64, kind string, timezone string) (DecisionResult, error) {
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return DecisionResult{}, ErrValidation
	}
	normalized, err := normalizeKind(kind)
	if err != nil {
		return DecisionResult{}, err
	}
	if s.swipes == nil || s.likes == nil || s.matches == nil || s.gate == nil {
		return DecisionResult{}, fmt.Errorf("matching dependencies are not configured")
	}

	now := s.now().UTC()

	// A standing like means this ordered pair was already decided. Repeating
	// the decision reports the existing outcome without charging again.
	if normalized != enums.SwipeKindPass {
		exists, err := s.likes.Exists(ctx, nil, actorID, targetID)
		if err != nil {
			return DecisionResult{}, fmt.Errorf("lookup standing like: %w", err)
		}
		if exists {
			return s.existingDecision(ctx, actorID, targetID)
		}
	}

	action := actionForKind(normalized)

	result := DecisionResult{}
	charge, err := s.gate.AuthorizeAndDo(ctx, actorID, action, timezone, func(txCtx context.Context, tx pgx.Tx) error {
		// The gate may retry the whole effect on a serialization conflict.
		result = DecisionResult{}

		if _, err := s.swipes.Create(txCtx, tx, actorID, targetID, string(normalized), now); err != nil {
			return err
		}
		if normalized == enums.SwipeKindPass {
			return nil
		}

		if err := s.likes.Upsert(txCtx, tx, actorID, targetID, normalized == enums.SwipeKindSuperLike); err != nil {
			return err
		}

		match, _, err := s.matches.CreateIfMutualLike(txCtx, tx, actorID, targetID, uuid.NewString())
		if err != nil {
			return err
		}
		if match.ID > 0 {
			result.IsMatch = true
			result.MatchID = match.ID
			result.ChatID = match.ChatID
		}
		return nil
	})
	if err != nil {
		return DecisionResult{}, err
	}

	result.Charge = charge
	if !charge.Granted {
		return DecisionResult{Charge: charge}, nil
	}
	return result, nil
}

func (s *Service) existingDecision(ctx context.Context, actorID, targetID int64) (DecisionResult, error) {
	result := DecisionResult{
		Charge: gatesvc.Decision{
			Granted:     true,
			ChargedFrom: gatesvc.ChargedFromNone,
			Remaining:   rules.Unlimited,
		},
	}

	match, err := s.matches.GetByUsers(ctx, actorID, targetID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return result, nil
		}
		return DecisionResult{}, fmt.Errorf("lookup existing match: %w", err)
	}

	result.IsMatch = true
	result.MatchID = match.ID
	result.ChatID = match.ChatID
	return result, nil
}

// Undo rewinds the actor's most recent decision. The undo credit and every
// compensation run in one transaction, so a failed rewind costs nothing.
func (s *Service) Undo(ctx context.Context, actorID int64, timezone string) (UndoResult, error) {
	if actorID <= 0 {
		return UndoResult{}, ErrValidation
	}
	if s.swipes == nil || s.likes == nil || s.matches == nil || s.quotas == nil || s.inventory == nil || s.gate == nil {
		return UndoResult{}, fmt.Errorf("matching dependencies are not configured")
	}

	loc := s.resolveLocation(timezone)

	result := UndoResult{}
	charge, err := s.gate.AuthorizeAndDo(ctx, actorID, gatesvc.Action{
		Name: "swipe.undo",
		Cost: gatesvc.InventoryCost(enums.ItemTypeUndoSwipe, 1),
	}, timezone, func(txCtx context.Context, tx pgx.Tx) error {
		last, err := s.swipes.GetLastByActor(txCtx, tx, actorID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrSwipeNotFound) {
				return ErrNothingToUndo
			}
			return err
		}

		kind, err := normalizeKind(last.Kind)
		if err != nil {
			return err
		}
		result.UndoneKind = kind
		result.UndoneTargetID = last.TargetUserID

		switch kind {
		case enums.SwipeKindLike:
			if err := s.compensateLike(txCtx, tx, actorID, last, loc); err != nil {
				return err
			}
		case enums.SwipeKindSuperLike:
			if err := s.compensateLike(txCtx, tx, actorID, last, loc); err != nil {
				return err
			}
			if _, err := s.inventory.Grant(txCtx, tx, actorID, enums.ItemTypeSuperLike, 1); err != nil {
				return err
			}
		case enums.SwipeKindPass:
			// Audit row removal below is the whole rewind.
		}

		return s.swipes.DeleteByID(txCtx, tx, last.ID)
	})
	if err != nil {
		return UndoResult{}, err
	}

	result.Charge = charge
	if !charge.Granted {
		return UndoResult{Charge: charge}, nil
	}
	return result, nil
}

func (s *Service) compensateLike(ctx context.Context, tx pgx.Tx, actorID int64, last pgrepo.SwipeRecord, loc *time.Location) error {
	if _, err := s.likes.Delete(ctx, tx, actorID, last.TargetUserID); err != nil {
		return err
	}
	if _, err := s.matches.DeleteByUsers(ctx, tx, actorID, last.TargetUserID); err != nil {
		return err
	}

	// Refund against the day the like was spent; a no-op for tiers that
	// never touched the ledger.
	dayKey := rules.DayKey(last.CreatedAt.UTC(), loc)
	return s.quotas.Refund(ctx, tx, actorID, rules.QuotaActionLike, dayKey)
}

func (s *Service) resolveLocation(explicit string) *time.Location {
	candidate := strings.TrimSpace(explicit)
	if candidate == "" {
		candidate = strings.TrimSpace(s.cfg.DefaultTimezone)
	}
	if candidate == "" {
		candidate = "UTC"
	}

	loc, err := time.LoadLocation(candidate)
	if err != nil {
		return time.UTC
	}
	return loc
}

func actionForKind(kind enums.SwipeKind) gatesvc.Action {
	switch kind {
	case enums.SwipeKindSuperLike:
		return gatesvc.Action{Name: "swipe.super_like", Cost: gatesvc.InventoryCost(enums.ItemTypeSuperLike, 1)}
	case enums.SwipeKindLike:
		return gatesvc.Action{Name: "swipe.like", Cost: gatesvc.QuotaCost(rules.QuotaActionLike)}
	default:
		return gatesvc.Action{Name: "swipe.pass", Cost: gatesvc.Free()}
	}
}

func normalizeKind(input string) (enums.SwipeKind, error) {
	value := strings.ToUpper(strings.TrimSpace(input))
	value = strings.ReplaceAll(value, "_", "")
	switch value {
	case "LIKE":
		return enums.SwipeKindLike, nil
	case "SUPERLIKE":
		return enums.SwipeKindSuperLike, nil
	case "PASS", "DISLIKE":
		return enums.SwipeKindPass, nil
	default:
		return "", ErrUnsupportedKind
	}
}
