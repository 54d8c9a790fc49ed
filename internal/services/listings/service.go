package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/botalove/backend/internal/domain/enums"
	"github.com/botalove/backend/internal/domain/rules"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
	privsvc "github.com/botalove/backend/internal/services/privileges"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrListingNotFound     = errors.New("listing not found")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrNotActivated        = errors.New("listing was never activated")
	ErrNotOwner            = errors.New("actor does not own the listing")
)

type Store interface {
	Create(ctx context.Context, ownerUserID int64, title string, durationDays, highlightDays int) (pgrepo.ListingRecord, error)
	Get(ctx context.Context, listingID int64) (pgrepo.ListingRecord, error)
	MarkPaid(ctx context.Context, listingID int64, status string, durationDays, highlightDays int) error
	IncrementInterested(ctx context.Context, listingID int64) (int, error)
}

type Privileges interface {
	Activate(ctx context.Context, subjectID int64, kind enums.PrivilegeKind, duration time.Duration) (privsvc.Window, error)
	Status(ctx context.Context, subjectID int64, kind enums.PrivilegeKind) (privsvc.Status, error)
}

// PaymentResult is the provider's verdict handed to the lifecycle. Only a
// confirmed result moves a listing out of pending.
type PaymentResult struct {
	Provider  string
	Reference string
	Succeeded bool
}

type Quote struct {
	Listing            pgrepo.ListingRecord
	DurationPriceCents int
	HighlightCents     int
	TotalCents         int
}

// Status is derived, never stored: active and highlighted come from window
// arithmetic against the clock.
type Status struct {
	Listing            pgrepo.ListingRecord
	State              enums.ListingStatus
	Active             bool
	Highlighted        bool
	ActiveRemaining    time.Duration
	HighlightRemaining time.Duration
}

type Service struct {
	store      Store
	privileges Privileges
}

func NewService(store Store, privileges Privileges) *Service {
	return &Service{
		store:      store,
		privileges: privileges,
	}
}

// Publish creates the listing in pending state and quotes its price. Nothing
// is visible until a payment confirmation activates it.
func (s *Service) Publish(ctx context.Context, ownerUserID int64, title string, durationDays, highlightDays int) (Quote, error) {
	if ownerUserID <= 0 || strings.TrimSpace(title) == "" {
		return Quote{}, ErrValidation
	}
	if !rules.IsListingDuration(durationDays) {
		return Quote{}, ErrValidation
	}
	if highlightDays < 0 || highlightDays > durationDays {
		return Quote{}, ErrValidation
	}
	if s.store == nil {
		return Quote{}, fmt.Errorf("listing store is nil")
	}

	rec, err := s.store.Create(ctx, ownerUserID, title, durationDays, highlightDays)
	if err != nil {
		return Quote{}, fmt.Errorf("create listing: %w", err)
	}

	durationPrice := rules.DurationPriceCents(durationDays)
	highlightPrice := rules.HighlightPriceCents(highlightDays)

	return Quote{
		Listing:            rec,
		DurationPriceCents: durationPrice,
		HighlightCents:     highlightPrice,
		TotalCents:         durationPrice + highlightPrice,
	}, nil
}

// ConfirmPayment is the only transition out of pending. Only the owner can
// confirm; a failed result leaves the listing pending and reports
// ErrPaymentNotConfirmed.
func (s *Service) ConfirmPayment(ctx context.Context, actorID, listingID int64, result PaymentResult) (Status, error) {
	if actorID <= 0 || listingID <= 0 {
		return Status{}, ErrValidation
	}
	if s.store == nil || s.privileges == nil {
		return Status{}, fmt.Errorf("listing dependencies are not configured")
	}

	rec, err := s.getListing(ctx, listingID)
	if err != nil {
		return Status{}, err
	}
	if rec.OwnerUserID != actorID {
		return Status{}, ErrNotOwner
	}
	if !result.Succeeded {
		return Status{}, ErrPaymentNotConfirmed
	}

	if _, err := s.privileges.Activate(ctx, rec.ID, enums.PrivilegeKindListingActive, daysToDuration(rec.DurationDays)); err != nil {
		return Status{}, fmt.Errorf("start listing window: %w", err)
	}
	if rec.HighlightDays > 0 {
		if _, err := s.privileges.Activate(ctx, rec.ID, enums.PrivilegeKindListingHighlight, daysToDuration(rec.HighlightDays)); err != nil {
			return Status{}, fmt.Errorf("start highlight window: %w", err)
		}
	}

	if err := s.store.MarkPaid(ctx, rec.ID, string(enums.ListingStatusActive), rec.DurationDays, rec.HighlightDays); err != nil {
		return Status{}, fmt.Errorf("mark listing paid: %w", err)
	}

	return s.GetStatus(ctx, listingID)
}

// Renew starts a brand-new full-length window at renewal time; any remaining
// time on the old window is discarded, never added. The highlight window is
// only touched when the renewal explicitly buys it again.
func (s *Service) Renew(ctx context.Context, actorID, listingID int64, renewHighlight bool, result PaymentResult) (Status, error) {
	if actorID <= 0 || listingID <= 0 {
		return Status{}, ErrValidation
	}
	if s.store == nil || s.privileges == nil {
		return Status{}, fmt.Errorf("listing dependencies are not configured")
	}

	rec, err := s.getListing(ctx, listingID)
	if err != nil {
		return Status{}, err
	}
	if rec.OwnerUserID != actorID {
		return Status{}, ErrNotOwner
	}
	if rec.Status == string(enums.ListingStatusPending) {
		return Status{}, ErrNotActivated
	}
	if !result.Succeeded {
		return Status{}, ErrPaymentNotConfirmed
	}

	if _, err := s.privileges.Activate(ctx, rec.ID, enums.PrivilegeKindListingActive, daysToDuration(rec.DurationDays)); err != nil {
		return Status{}, fmt.Errorf("renew listing window: %w", err)
	}
	if renewHighlight && rec.HighlightDays > 0 {
		if _, err := s.privileges.Activate(ctx, rec.ID, enums.PrivilegeKindListingHighlight, daysToDuration(rec.HighlightDays)); err != nil {
			return Status{}, fmt.Errorf("renew highlight window: %w", err)
		}
	}

	if err := s.store.MarkPaid(ctx, rec.ID, string(enums.ListingStatusRenewed), rec.DurationDays, rec.HighlightDays); err != nil {
		return Status{}, fmt.Errorf("mark listing renewed: %w", err)
	}

	return s.GetStatus(ctx, listingID)
}

func (s *Service) GetStatus(ctx context.Context, listingID int64) (Status, error) {
	if listingID <= 0 {
		return Status{}, ErrValidation
	}
	if s.store == nil || s.privileges == nil {
		return Status{}, fmt.Errorf("listing dependencies are not configured")
	}

	rec, err := s.getListing(ctx, listingID)
	if err != nil {
		return Status{}, err
	}

	status := Status{Listing: rec, State: enums.ListingStatusPending}
	if rec.Status == string(enums.ListingStatusPending) {
		return status, nil
	}

	active, err := s.privileges.Status(ctx, rec.ID, enums.PrivilegeKindListingActive)
	if err != nil {
		return Status{}, fmt.Errorf("read listing window: %w", err)
	}
	highlight, err := s.privileges.Status(ctx, rec.ID, enums.PrivilegeKindListingHighlight)
	if err != nil {
		return Status{}, fmt.Errorf("read highlight window: %w", err)
	}

	status.Active = active.Active
	status.ActiveRemaining = active.Remaining
	status.Highlighted = highlight.Active
	status.HighlightRemaining = highlight.Remaining

	if active.Active {
		status.State = enums.ListingStatusActive
	} else {
		status.State = enums.ListingStatusExpired
	}
	return status, nil
}

func (s *Service) MarkInterested(ctx context.Context, listingID int64) (int, error) {
	if listingID <= 0 {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("listing store is nil")
	}

	count, err := s.store.IncrementInterested(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrListingNotFound) {
			return 0, ErrListingNotFound
		}
		return 0, fmt.Errorf("increment interested: %w", err)
	}
	return count, nil
}

func (s *Service) getListing(ctx context.Context, listingID int64) (pgrepo.ListingRecord, error) {
	rec, err := s.store.Get(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrListingNotFound) {
			return pgrepo.ListingRecord{}, ErrListingNotFound
		}
		return pgrepo.ListingRecord{}, fmt.Errorf("get listing: %w", err)
	}
	return rec, nil
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
