package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrListingNotFound = errors.New("listing not found")

type ListingRepo struct {
	pool *pgxpool.Pool
}

type ListingRecord struct {
	ID            int64
	OwnerUserID   int64
	Title         string
	Status        string
	DurationDays  int
	HighlightDays int
	Interested    int
	CreatedAt     time.Time
}

func NewListingRepo(pool *pgxpool.Pool) *ListingRepo {
	return &ListingRepo{pool: pool}
}

func (r *ListingRepo) Create(ctx context.Context, ownerUserID int64, title string, durationDays, highlightDays int) (ListingRecord, error) {
	if ownerUserID <= 0 || strings.TrimSpace(title) == "" || durationDays <= 0 {
		return ListingRecord{}, fmt.Errorf("invalid listing payload")
	}
	if r.pool == nil {
		return ListingRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec ListingRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO listings (
	owner_user_id,
	title,
	status,
	duration_days,
	highlight_days,
	interested,
	created_at,
	updated_at
) VALUES ($1, $2, 'pending', $3, $4, 0, NOW(), NOW())
RETURNING id, owner_user_id, title, status, duration_days, highlight_days, interested, created_at
`, ownerUserID, strings.TrimSpace(title), durationDays, highlightDays).Scan(
		&rec.ID,
		&rec.OwnerUserID,
		&rec.Title,
		&rec.Status,
		&rec.DurationDays,
		&rec.HighlightDays,
		&rec.Interested,
		&rec.CreatedAt,
	)
	if err != nil {
		return ListingRecord{}, fmt.Errorf("create listing: %w", err)
	}

	return rec, nil
}

func (r *ListingRepo) Get(ctx context.Context, listingID int64) (ListingRecord, error) {
	if listingID <= 0 {
		return ListingRecord{}, fmt.Errorf("invalid listing id")
	}
	if r.pool == nil {
		return ListingRecord{}, ErrListingNotFound
	}

	var rec ListingRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, owner_user_id, title, status, duration_days, highlight_days, interested, created_at
FROM listings
WHERE id = $1
LIMIT 1
`, listingID).Scan(
		&rec.ID,
		&rec.OwnerUserID,
		&rec.Title,
		&rec.Status,
		&rec.DurationDays,
		&rec.HighlightDays,
		&rec.Interested,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ListingRecord{}, ErrListingNotFound
		}
		return ListingRecord{}, fmt.Errorf("get listing: %w", err)
	}

	return rec, nil
}

// MarkPaid records the purchased durations and moves a pending listing along.
// The visible "active" state itself lives in the privilege window, not here.
func (r *ListingRepo) MarkPaid(ctx context.Context, listingID int64, status string, durationDays, highlightDays int) error {
	if listingID <= 0 || strings.TrimSpace(status) == "" || durationDays <= 0 {
		return fmt.Errorf("invalid listing payment payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE listings
SET
	status = $2,
	duration_days = $3,
	highlight_days = $4,
	updated_at = NOW()
WHERE id = $1
`, listingID, status, durationDays, highlightDays)
	if err != nil {
		return fmt.Errorf("mark listing paid: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrListingNotFound
	}

	return nil
}

func (r *ListingRepo) IncrementInterested(ctx context.Context, listingID int64) (int, error) {
	if listingID <= 0 {
		return 0, fmt.Errorf("invalid listing id")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var interested int
	err := r.pool.QueryRow(ctx, `
UPDATE listings
SET
	interested = interested + 1,
	updated_at = NOW()
WHERE id = $1
RETURNING interested
`, listingID).Scan(&interested)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrListingNotFound
		}
		return 0, fmt.Errorf("increment listing interested: %w", err)
	}

	return interested, nil
}
