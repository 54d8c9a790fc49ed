package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botalove/backend/internal/domain/enums"
)

var ErrInventoryEmpty = errors.New("insufficient inventory balance")

type InventoryRepo struct {
	pool *pgxpool.Pool
}

func NewInventoryRepo(pool *pgxpool.Pool) *InventoryRepo {
	return &InventoryRepo{pool: pool}
}

// Consume decrements the balance only when enough units remain. The guard in
// the UPDATE is the atomic check-and-decrement; a zero-row result means the
// balance was short and nothing changed.
func (r *InventoryRepo) Consume(ctx context.Context, tx pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error) {
	if actorID <= 0 || item == "" || quantity <= 0 {
		return 0, fmt.Errorf("invalid inventory consume payload")
	}
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	var remaining int
	err := tx.QueryRow(ctx, `
UPDATE inventories
SET
	quantity = quantity - $3,
	updated_at = NOW()
WHERE
	actor_id = $1
	AND item_type = $2
	AND quantity >= $3
RETURNING quantity
`, actorID, string(item), quantity).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInventoryEmpty
		}
		return 0, fmt.Errorf("consume inventory: %w", err)
	}

	return remaining, nil
}

// Grant is an additive credit. Unknown actors get their row lazily.
func (r *InventoryRepo) Grant(ctx context.Context, tx pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error) {
	if actorID <= 0 || item == "" || quantity < 0 {
		return 0, fmt.Errorf("invalid inventory grant payload")
	}
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	var balance int
	err := tx.QueryRow(ctx, `
INSERT INTO inventories (
	actor_id,
	item_type,
	quantity,
	updated_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (actor_id, item_type) DO UPDATE SET
	quantity = inventories.quantity + EXCLUDED.quantity,
	updated_at = NOW()
RETURNING quantity
`, actorID, string(item), quantity).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("grant inventory: %w", err)
	}

	return balance, nil
}

// Balance reads the current quantity. A missing row is a zero balance, not an
// error.
func (r *InventoryRepo) Balance(ctx context.Context, actorID int64, item enums.ItemType) (int, error) {
	if actorID <= 0 || item == "" {
		return 0, fmt.Errorf("invalid inventory lookup payload")
	}
	if r.pool == nil {
		return 0, nil
	}

	var quantity int
	err := r.pool.QueryRow(ctx, `
SELECT quantity
FROM inventories
WHERE actor_id = $1 AND item_type = $2
LIMIT 1
`, actorID, string(item)).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get inventory balance: %w", err)
	}

	return quantity, nil
}

// Balances lists every non-zero balance for UI display.
func (r *InventoryRepo) Balances(ctx context.Context, actorID int64) (map[enums.ItemType]int, error) {
	if actorID <= 0 {
		return nil, fmt.Errorf("invalid actor id")
	}
	if r.pool == nil {
		return map[enums.ItemType]int{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT item_type, quantity
FROM inventories
WHERE actor_id = $1 AND quantity > 0
`, actorID)
	if err != nil {
		return nil, fmt.Errorf("list inventory balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[enums.ItemType]int)
	for rows.Next() {
		var item string
		var quantity int
		if err := rows.Scan(&item, &quantity); err != nil {
			return nil, fmt.Errorf("scan inventory balance: %w", err)
		}
		balances[enums.ItemType(item)] = quantity
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate inventory balances: %w", rows.Err())
	}

	return balances, nil
}
