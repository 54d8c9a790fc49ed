package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/botalove/backend/internal/domain/enums"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
)

type memoryInventoryStore struct {
	balances map[string]int
}

func newMemoryInventoryStore() *memoryInventoryStore {
	return &memoryInventoryStore{
		balances: make(map[string]int),
	}
}

func (s *memoryInventoryStore) Consume(_ context.Context, _ pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error) {
	k := s.key(actorID, item)
	if s.balances[k] < quantity {
		return 0, pgrepo.ErrInventoryEmpty
	}
	s.balances[k] -= quantity
	return s.balances[k], nil
}

func (s *memoryInventoryStore) Grant(_ context.Context, _ pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error) {
	k := s.key(actorID, item)
	s.balances[k] += quantity
	return s.balances[k], nil
}

func (s *memoryInventoryStore) Balance(_ context.Context, actorID int64, item enums.ItemType) (int, error) {
	return s.balances[s.key(actorID, item)], nil
}

func (s *memoryInventoryStore) Balances(_ context.Context, actorID int64) (map[enums.ItemType]int, error) {
	out := make(map[enums.ItemType]int)
	for _, item := range []enums.ItemType{
		enums.ItemTypeSuperLike,
		enums.ItemTypeAnonymousMessage,
		enums.ItemTypeDirectMessage,
		enums.ItemTypeUndoSwipe,
		enums.ItemTypeBoost,
	} {
		if v := s.balances[s.key(actorID, item)]; v > 0 {
			out[item] = v
		}
	}
	return out, nil
}

func (s *memoryInventoryStore) key(actorID int64, item enums.ItemType) string {
	return fmt.Sprintf("%d:%s", actorID, item)
}

func newTestService(store Store) *Service {
	service := NewService(nil, store)
	service.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return service
}

func TestConsumeNeverGoesNegative(t *testing.T) {
	store := newMemoryInventoryStore()
	service := newTestService(store)

	ctx := context.Background()
	actorID := int64(11)

	if _, err := service.Grant(ctx, actorID, enums.ItemTypeSuperLike, 2); err != nil {
		t.Fatalf("grant: %v", err)
	}

	remaining, err := service.Consume(ctx, actorID, enums.ItemTypeSuperLike, 2)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("unexpected remaining: got %d want 0", remaining)
	}

	if _, err := service.Consume(ctx, actorID, enums.ItemTypeSuperLike, 1); !errors.Is(err, ErrInventoryEmpty) {
		t.Fatalf("expected ErrInventoryEmpty, got %v", err)
	}

	balance, err := service.Balance(ctx, actorID, enums.ItemTypeSuperLike)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("denied consume must not mutate balance, got %d", balance)
	}
}

func TestConsumeShortfallLeavesBalanceUntouched(t *testing.T) {
	store := newMemoryInventoryStore()
	service := newTestService(store)

	ctx := context.Background()
	actorID := int64(12)

	if _, err := service.Grant(ctx, actorID, enums.ItemTypeUndoSwipe, 3); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if _, err := service.Consume(ctx, actorID, enums.ItemTypeUndoSwipe, 5); !errors.Is(err, ErrInventoryEmpty) {
		t.Fatalf("expected ErrInventoryEmpty, got %v", err)
	}

	balance, err := service.Balance(ctx, actorID, enums.ItemTypeUndoSwipe)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 3 {
		t.Fatalf("unexpected balance after denied consume: got %d want 3", balance)
	}
}

func TestBalanceUnknownActorIsZero(t *testing.T) {
	service := newTestService(newMemoryInventoryStore())

	balance, err := service.Balance(context.Background(), 999, enums.ItemTypeBoost)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("unknown actor must hold zero balance, got %d", balance)
	}
}

func TestConsumeRejectsInvalidInput(t *testing.T) {
	service := newTestService(newMemoryInventoryStore())

	if _, err := service.Consume(context.Background(), 0, enums.ItemTypeBoost, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero actor, got %v", err)
	}
	if _, err := service.Consume(context.Background(), 5, enums.ItemTypeBoost, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero quantity, got %v", err)
	}
}
