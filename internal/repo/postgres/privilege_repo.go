package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botalove/backend/internal/domain/enums"
)

var ErrPrivilegeWindowNotFound = errors.New("privilege window not found")

type PrivilegeRepo struct {
	pool *pgxpool.Pool
}

type PrivilegeWindowRecord struct {
	SubjectID       int64
	Kind            enums.PrivilegeKind
	StartedAt       time.Time
	DurationMinutes int
}

func NewPrivilegeRepo(pool *pgxpool.Pool) *PrivilegeRepo {
	return &PrivilegeRepo{pool: pool}
}

// Replace starts a new window of the given kind, superseding any previous one
// for the subject. Windows never stack.
func (r *PrivilegeRepo) Replace(ctx context.Context, subjectID int64, kind enums.PrivilegeKind, startedAt time.Time, durationMinutes int) (PrivilegeWindowRecord, error) {
	if r.pool == nil {
		return PrivilegeWindowRecord{}, fmt.Errorf("postgres pool is nil")
	}
	return r.replace(ctx, r.pool, subjectID, kind, startedAt, durationMinutes)
}

// ReplaceTx is Replace inside a caller-owned transaction, so a window can
// commit together with the charge that paid for it.
func (r *PrivilegeRepo) ReplaceTx(ctx context.Context, tx pgx.Tx, subjectID int64, kind enums.PrivilegeKind, startedAt time.Time, durationMinutes int) (PrivilegeWindowRecord, error) {
	if tx == nil {
		return PrivilegeWindowRecord{}, fmt.Errorf("transaction is required")
	}
	return r.replace(ctx, tx, subjectID, kind, startedAt, durationMinutes)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PrivilegeRepo) replace(ctx context.Context, q rowQuerier, subjectID int64, kind enums.PrivilegeKind, startedAt time.Time, durationMinutes int) (PrivilegeWindowRecord, error) {
	if subjectID <= 0 || kind == "" || durationMinutes <= 0 {
		return PrivilegeWindowRecord{}, fmt.Errorf("invalid privilege window payload")
	}
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	var rec PrivilegeWindowRecord
	err := q.QueryRow(ctx, `
INSERT INTO privilege_windows (
	subject_id,
	kind,
	started_at,
	duration_minutes,
	updated_at
) VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (subject_id, kind) DO UPDATE SET
	started_at = EXCLUDED.started_at,
	duration_minutes = EXCLUDED.duration_minutes,
	updated_at = NOW()
RETURNING subject_id, kind, started_at, duration_minutes
`, subjectID, string(kind), startedAt.UTC(), durationMinutes).Scan(
		&rec.SubjectID,
		&rec.Kind,
		&rec.StartedAt,
		&rec.DurationMinutes,
	)
	if err != nil {
		return PrivilegeWindowRecord{}, fmt.Errorf("replace privilege window: %w", err)
	}

	return rec, nil
}

func (r *PrivilegeRepo) Get(ctx context.Context, subjectID int64, kind enums.PrivilegeKind) (PrivilegeWindowRecord, error) {
	if subjectID <= 0 || kind == "" {
		return PrivilegeWindowRecord{}, fmt.Errorf("invalid privilege window lookup")
	}
	if r.pool == nil {
		return PrivilegeWindowRecord{}, ErrPrivilegeWindowNotFound
	}

	var rec PrivilegeWindowRecord
	err := r.pool.QueryRow(ctx, `
SELECT subject_id, kind, started_at, duration_minutes
FROM privilege_windows
WHERE subject_id = $1 AND kind = $2
LIMIT 1
`, subjectID, string(kind)).Scan(
		&rec.SubjectID,
		&rec.Kind,
		&rec.StartedAt,
		&rec.DurationMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PrivilegeWindowRecord{}, ErrPrivilegeWindowNotFound
		}
		return PrivilegeWindowRecord{}, fmt.Errorf("get privilege window: %w", err)
	}

	return rec, nil
}
