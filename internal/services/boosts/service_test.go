package boosts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/botalove/backend/internal/domain/enums"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
	gatesvc "github.com/botalove/backend/internal/services/gate"
	privsvc "github.com/botalove/backend/internal/services/privileges"
)

type stubInventory struct {
	credits int
}

func (s *stubInventory) Consume(_ context.Context, _ pgx.Tx, _ int64, _ enums.ItemType, quantity int) (int, error) {
	if s.credits < quantity {
		return 0, pgrepo.ErrInventoryEmpty
	}
	s.credits -= quantity
	return s.credits, nil
}

type stubQuotas struct{}

func (stubQuotas) ConsumeWithLimit(context.Context, pgx.Tx, int64, string, string, string, string, int) (int, error) {
	return 0, pgrepo.ErrQuotaLimitReached
}

type stubPlans struct{}

func (stubPlans) GetTier(context.Context, int64, time.Time) (enums.PlanTier, error) {
	return enums.PlanTierBronze, nil
}

type stubPrivileges struct {
	activations []time.Duration
	failWith    error
}

func (s *stubPrivileges) ActivateTx(_ context.Context, _ pgx.Tx, subjectID int64, kind enums.PrivilegeKind, duration time.Duration) (privsvc.Window, error) {
	if s.failWith != nil {
		return privsvc.Window{}, s.failWith
	}
	s.activations = append(s.activations, duration)
	started := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	return privsvc.Window{
		SubjectID: subjectID,
		Kind:      kind,
		StartedAt: started,
		ExpiresAt: started.Add(duration),
	}, nil
}

func (s *stubPrivileges) Status(context.Context, int64, enums.PrivilegeKind) (privsvc.Status, error) {
	return privsvc.Status{}, nil
}

func newTestService(inventory *stubInventory, privileges *stubPrivileges, duration time.Duration) *Service {
	gate := gatesvc.NewService(gatesvc.Dependencies{
		QuotaStore: stubQuotas{},
		Inventory:  inventory,
		PlanStore:  stubPlans{},
		// Models transactional rollback: a failed callback restores the
		// inventory to its pre-charge state.
		TxRunner: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			before := inventory.credits
			if err := fn(ctx, nil); err != nil {
				inventory.credits = before
				return err
			}
			return nil
		},
	}, gatesvc.Config{})

	return NewService(gate, privileges, Config{Duration: duration})
}

func TestBoostConsumesCreditAndStartsWindow(t *testing.T) {
	inventory := &stubInventory{credits: 1}
	privileges := &stubPrivileges{}
	service := newTestService(inventory, privileges, 90*time.Minute)

	result, err := service.Boost(context.Background(), 91, "")
	if err != nil {
		t.Fatalf("boost: %v", err)
	}
	if !result.Charge.Granted {
		t.Fatalf("expected granted boost, got %+v", result.Charge)
	}
	if inventory.credits != 0 {
		t.Fatalf("boost must consume the credit, %d left", inventory.credits)
	}
	if len(privileges.activations) != 1 || privileges.activations[0] != 90*time.Minute {
		t.Fatalf("unexpected activations: %v", privileges.activations)
	}
	if !result.Window.ExpiresAt.Equal(result.Window.StartedAt.Add(90 * time.Minute)) {
		t.Fatalf("unexpected window: %+v", result.Window)
	}
}

func TestBoostDeniedWithoutCredit(t *testing.T) {
	privileges := &stubPrivileges{}
	service := newTestService(&stubInventory{}, privileges, time.Hour)

	result, err := service.Boost(context.Background(), 92, "")
	if err != nil {
		t.Fatalf("boost: %v", err)
	}
	if result.Charge.Granted {
		t.Fatalf("expected denial without credit")
	}
	if result.Charge.Reason != gatesvc.ReasonInventoryEmpty {
		t.Fatalf("unexpected reason: %q", result.Charge.Reason)
	}
	if len(privileges.activations) != 0 {
		t.Fatalf("denied boost must not start a window")
	}
}

func TestBoostKeepsCreditWhenWindowFailsToStart(t *testing.T) {
	inventory := &stubInventory{credits: 1}
	privileges := &stubPrivileges{failWith: errors.New("privilege store is down")}
	service := newTestService(inventory, privileges, time.Hour)

	if _, err := service.Boost(context.Background(), 93, ""); err == nil {
		t.Fatalf("expected error when the window cannot start")
	}
	if inventory.credits != 1 {
		t.Fatalf("failed activation must roll the charge back, %d credits left", inventory.credits)
	}
}

func TestBoostRejectsInvalidActor(t *testing.T) {
	service := newTestService(&stubInventory{}, &stubPrivileges{}, time.Hour)

	if _, err := service.Boost(context.Background(), 0, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
