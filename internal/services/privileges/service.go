package privileges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/botalove/backend/internal/domain/enums"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

type Store interface {
	Replace(ctx context.Context, subjectID int64, kind enums.PrivilegeKind, startedAt time.Time, durationMinutes int) (pgrepo.PrivilegeWindowRecord, error)
	ReplaceTx(ctx context.Context, tx pgx.Tx, subjectID int64, kind enums.PrivilegeKind, startedAt time.Time, durationMinutes int) (pgrepo.PrivilegeWindowRecord, error)
	Get(ctx context.Context, subjectID int64, kind enums.PrivilegeKind) (pgrepo.PrivilegeWindowRecord, error)
}

type Window struct {
	SubjectID int64
	Kind      enums.PrivilegeKind
	StartedAt time.Time
	ExpiresAt time.Time
}

type Status struct {
	Active    bool
	StartedAt time.Time
	ExpiresAt time.Time
	Remaining time.Duration
}

// Service manages time-boxed privilege windows. A window is a stored start
// plus duration; activity is always computed against the clock, never stored.
// Activating a kind that is already running replaces the window, it does not
// stack.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

func (s *Service) Activate(ctx context.Context, subjectID int64, kind enums.PrivilegeKind, duration time.Duration) (Window, error) {
	now, minutes, err := s.activationWindow(subjectID, kind, duration)
	if err != nil {
		return Window{}, err
	}

	rec, err := s.store.Replace(ctx, subjectID, kind, now, minutes)
	if err != nil {
		return Window{}, fmt.Errorf("replace privilege window: %w", err)
	}

	return windowFromRecord(rec), nil
}

// ActivateTx is Activate inside a caller-owned transaction. It lets the window
// commit or roll back together with whatever paid for it.
func (s *Service) ActivateTx(ctx context.Context, tx pgx.Tx, subjectID int64, kind enums.PrivilegeKind, duration time.Duration) (Window, error) {
	now, minutes, err := s.activationWindow(subjectID, kind, duration)
	if err != nil {
		return Window{}, err
	}

	rec, err := s.store.ReplaceTx(ctx, tx, subjectID, kind, now, minutes)
	if err != nil {
		return Window{}, fmt.Errorf("replace privilege window: %w", err)
	}

	return windowFromRecord(rec), nil
}

func (s *Service) activationWindow(subjectID int64, kind enums.PrivilegeKind, duration time.Duration) (time.Time, int, error) {
	if subjectID <= 0 || duration <= 0 {
		return time.Time{}, 0, ErrValidation
	}
	if _, ok := enums.ParsePrivilegeKind(string(kind)); !ok {
		return time.Time{}, 0, ErrValidation
	}
	if s.store == nil {
		return time.Time{}, 0, fmt.Errorf("privilege store is nil")
	}

	now := s.now().UTC()
	minutes := int(duration / time.Minute)
	if duration%time.Minute != 0 {
		minutes++
	}
	return now, minutes, nil
}

func (s *Service) Status(ctx context.Context, subjectID int64, kind enums.PrivilegeKind) (Status, error) {
	if subjectID <= 0 {
		return Status{}, ErrValidation
	}
	if s.store == nil {
		return Status{}, fmt.Errorf("privilege store is nil")
	}

	rec, err := s.store.Get(ctx, subjectID, kind)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPrivilegeWindowNotFound) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("read privilege window: %w", err)
	}

	now := s.now().UTC()
	expiresAt := rec.StartedAt.Add(time.Duration(rec.DurationMinutes) * time.Minute)

	status := Status{
		StartedAt: rec.StartedAt,
		ExpiresAt: expiresAt,
	}
	if now.Before(expiresAt) {
		status.Active = true
		status.Remaining = expiresAt.Sub(now)
	}
	return status, nil
}

func windowFromRecord(rec pgrepo.PrivilegeWindowRecord) Window {
	return Window{
		SubjectID: rec.SubjectID,
		Kind:      rec.Kind,
		StartedAt: rec.StartedAt,
		ExpiresAt: rec.StartedAt.Add(time.Duration(rec.DurationMinutes) * time.Minute),
	}
}
