package boosts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/botalove/backend/internal/domain/enums"
	gatesvc "github.com/botalove/backend/internal/services/gate"
	privsvc "github.com/botalove/backend/internal/services/privileges"
)

var ErrValidation = errors.New("validation error")

type Gate interface {
	AuthorizeAndDo(ctx context.Context, actorID int64, action gatesvc.Action, timezone string, effect func(ctx context.Context, tx pgx.Tx) error) (gatesvc.Decision, error)
}

type Privileges interface {
	ActivateTx(ctx context.Context, tx pgx.Tx, subjectID int64, kind enums.PrivilegeKind, duration time.Duration) (privsvc.Window, error)
	Status(ctx context.Context, subjectID int64, kind enums.PrivilegeKind) (privsvc.Status, error)
}

type Config struct {
	Duration time.Duration
}

type Result struct {
	Charge gatesvc.Decision
	Window privsvc.Window
}

// Service redeems one boost credit for a fresh visibility window. Boosting
// while a window is already running replaces it.
type Service struct {
	gate       Gate
	privileges Privileges
	cfg        Config
}

func NewService(gate Gate, privileges Privileges, cfg Config) *Service {
	if cfg.Duration <= 0 {
		cfg.Duration = 60 * time.Minute
	}

	return &Service{
		gate:       gate,
		privileges: privileges,
		cfg:        cfg,
	}
}

func (s *Service) Boost(ctx context.Context, actorID int64, timezone string) (Result, error) {
	if actorID <= 0 {
		return Result{}, ErrValidation
	}
	if s.gate == nil || s.privileges == nil {
		return Result{}, fmt.Errorf("boost dependencies are not configured")
	}

	// The window starts inside the charge transaction: a failed activation
	// rolls the consumed credit back.
	var window privsvc.Window
	charge, err := s.gate.AuthorizeAndDo(ctx, actorID, gatesvc.Action{
		Name: "boost.activate",
		Cost: gatesvc.InventoryCost(enums.ItemTypeBoost, 1),
	}, timezone, func(txCtx context.Context, tx pgx.Tx) error {
		window = privsvc.Window{}

		started, activateErr := s.privileges.ActivateTx(txCtx, tx, actorID, enums.PrivilegeKindBoost, s.cfg.Duration)
		if activateErr != nil {
			return fmt.Errorf("start boost window: %w", activateErr)
		}
		window = started
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if !charge.Granted {
		return Result{Charge: charge}, nil
	}

	return Result{Charge: charge, Window: window}, nil
}

func (s *Service) Status(ctx context.Context, actorID int64) (privsvc.Status, error) {
	if actorID <= 0 {
		return privsvc.Status{}, ErrValidation
	}
	if s.privileges == nil {
		return privsvc.Status{}, fmt.Errorf("boost dependencies are not configured")
	}
	return s.privileges.Status(ctx, actorID, enums.PrivilegeKindBoost)
}
