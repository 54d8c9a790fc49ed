package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botalove/backend/internal/domain/enums"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrInventoryEmpty = errors.New("insufficient inventory balance")
)

type Store interface {
	Consume(ctx context.Context, tx pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error)
	Grant(ctx context.Context, tx pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error)
	Balance(ctx context.Context, actorID int64, item enums.ItemType) (int, error)
	Balances(ctx context.Context, actorID int64) (map[enums.ItemType]int, error)
}

// Service owns per-actor consumable balances. Every mutation is a single
// guarded statement, so a shortfall leaves the balance untouched.
type Service struct {
	pool  *pgxpool.Pool
	store Store
	runTx func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

func NewService(pool *pgxpool.Pool, store Store) *Service {
	s := &Service{
		pool:  pool,
		store: store,
	}
	s.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, s.pool, fn)
	}
	return s
}

func (s *Service) Consume(ctx context.Context, actorID int64, item enums.ItemType, quantity int) (int, error) {
	if actorID <= 0 || quantity <= 0 {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("inventory store is nil")
	}

	remaining := 0
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		left, err := s.store.Consume(txCtx, tx, actorID, item, quantity)
		if err != nil {
			if errors.Is(err, pgrepo.ErrInventoryEmpty) {
				return ErrInventoryEmpty
			}
			return err
		}
		remaining = left
		return nil
	})
	if err != nil {
		return 0, err
	}

	return remaining, nil
}

func (s *Service) Grant(ctx context.Context, actorID int64, item enums.ItemType, quantity int) (int, error) {
	if actorID <= 0 || quantity <= 0 {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("inventory store is nil")
	}

	balance := 0
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		updated, err := s.store.Grant(txCtx, tx, actorID, item, quantity)
		if err != nil {
			return err
		}
		balance = updated
		return nil
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// Balance reports the current count for one item. Actors without a row hold
// a zero balance.
func (s *Service) Balance(ctx context.Context, actorID int64, item enums.ItemType) (int, error) {
	if actorID <= 0 {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("inventory store is nil")
	}

	balance, err := s.store.Balance(ctx, actorID, item)
	if err != nil {
		return 0, fmt.Errorf("read inventory balance: %w", err)
	}
	return balance, nil
}

func (s *Service) Balances(ctx context.Context, actorID int64) (map[enums.ItemType]int, error) {
	if actorID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("inventory store is nil")
	}

	balances, err := s.store.Balances(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("read inventory balances: %w", err)
	}
	return balances, nil
}
