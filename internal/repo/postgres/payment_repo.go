package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPaymentTransactionNotFound = errors.New("payment transaction not found")

type PaymentRepo struct {
	pool *pgxpool.Pool
}

type PaymentTransactionRecord struct {
	ID             string
	ActorID        int64
	Provider       string
	Reference      *string
	IdempotencyKey string
	AmountCents    int
	Currency       string
	ProductSKU     string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Begin opens a pending transaction. Replaying the same idempotency key
// returns the original row untouched.
func (r *PaymentRepo) Begin(ctx context.Context, actorID int64, provider, productSKU string, amountCents int, currency, idempotencyKey string) (PaymentTransactionRecord, bool, error) {
	if r.pool == nil {
		return PaymentTransactionRecord{}, false, fmt.Errorf("postgres pool is nil")
	}
	if actorID <= 0 || amountCents <= 0 {
		return PaymentTransactionRecord{}, false, fmt.Errorf("invalid begin payment payload")
	}

	provider = strings.ToLower(strings.TrimSpace(provider))
	productSKU = strings.ToLower(strings.TrimSpace(productSKU))
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "BRL"
	}
	if provider == "" || productSKU == "" || idempotencyKey == "" {
		return PaymentTransactionRecord{}, false, fmt.Errorf("invalid begin payment payload")
	}

	txID := uuid.NewString()
	rec, err := scanPaymentRow(r.pool.QueryRow(ctx, `
INSERT INTO payment_transactions (
	id,
	actor_id,
	provider,
	idempotency_key,
	amount_cents,
	currency,
	product_sku,
	status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, 'PENDING', NOW(), NOW())
ON CONFLICT (idempotency_key) DO UPDATE
SET updated_at = payment_transactions.updated_at
RETURNING
	id, actor_id, provider, reference, idempotency_key,
	amount_cents, currency, product_sku, status, created_at, updated_at
`, txID, actorID, provider, idempotencyKey, amountCents, currency, productSKU))
	if err != nil {
		return PaymentTransactionRecord{}, false, fmt.Errorf("begin payment transaction: %w", err)
	}

	created := strings.EqualFold(rec.ID, txID)
	return rec, created, nil
}

// Confirm settles a pending transaction and runs `grant` inside the same
// transaction so the paid-for effect and the settlement commit together.
// Confirming an already settled reference is idempotent.
func (r *PaymentRepo) Confirm(ctx context.Context, provider, reference string, grant func(ctx context.Context, tx pgx.Tx, rec PaymentTransactionRecord) error) (PaymentTransactionRecord, bool, error) {
	if r.pool == nil {
		return PaymentTransactionRecord{}, false, fmt.Errorf("postgres pool is nil")
	}

	provider = strings.ToLower(strings.TrimSpace(provider))
	reference = strings.TrimSpace(reference)
	if provider == "" || reference == "" {
		return PaymentTransactionRecord{}, false, fmt.Errorf("invalid confirm payment payload")
	}

	var out PaymentTransactionRecord
	idempotent := false
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		rec, err := r.lockForConfirm(txCtx, tx, provider, reference)
		if err != nil {
			return err
		}

		if strings.EqualFold(rec.Status, "SUCCEEDED") {
			idempotent = true
			out = rec
			return nil
		}

		if grant != nil {
			if err := grant(txCtx, tx, rec); err != nil {
				return err
			}
		}

		updated, err := scanPaymentRow(tx.QueryRow(txCtx, `
UPDATE payment_transactions
SET
	status = 'SUCCEEDED',
	reference = $2,
	updated_at = NOW()
WHERE id = $1
RETURNING
	id, actor_id, provider, reference, idempotency_key,
	amount_cents, currency, product_sku, status, created_at, updated_at
`, rec.ID, reference))
		if err != nil {
			return fmt.Errorf("mark payment succeeded: %w", err)
		}

		out = updated
		return nil
	})
	if err != nil {
		return PaymentTransactionRecord{}, false, err
	}

	return out, idempotent, nil
}

func (r *PaymentRepo) lockForConfirm(ctx context.Context, tx pgx.Tx, provider, reference string) (PaymentTransactionRecord, error) {
	rec, err := scanPaymentRow(tx.QueryRow(ctx, `
SELECT
	id, actor_id, provider, reference, idempotency_key,
	amount_cents, currency, product_sku, status, created_at, updated_at
FROM payment_transactions
WHERE provider = $1 AND reference = $2
FOR UPDATE
`, provider, reference))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return PaymentTransactionRecord{}, fmt.Errorf("lock payment by reference: %w", err)
	}

	// First confirmation for this reference: claim the oldest pending
	// transaction for the provider keyed by the reference's idempotency key.
	rec, err = scanPaymentRow(tx.QueryRow(ctx, `
SELECT
	id, actor_id, provider, reference, idempotency_key,
	amount_cents, currency, product_sku, status, created_at, updated_at
FROM payment_transactions
WHERE provider = $1 AND idempotency_key = $2 AND status = 'PENDING'
ORDER BY created_at ASC
LIMIT 1
FOR UPDATE
`, provider, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentTransactionRecord{}, ErrPaymentTransactionNotFound
		}
		return PaymentTransactionRecord{}, fmt.Errorf("lock pending payment: %w", err)
	}

	return rec, nil
}

func scanPaymentRow(row pgx.Row) (PaymentTransactionRecord, error) {
	var rec PaymentTransactionRecord
	err := row.Scan(
		&rec.ID,
		&rec.ActorID,
		&rec.Provider,
		&rec.Reference,
		&rec.IdempotencyKey,
		&rec.AmountCents,
		&rec.Currency,
		&rec.ProductSKU,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return PaymentTransactionRecord{}, err
	}
	return rec, nil
}
