package listings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/botalove/backend/internal/domain/enums"
	"github.com/botalove/backend/internal/domain/rules"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
	privsvc "github.com/botalove/backend/internal/services/privileges"
)

type memoryListingStore struct {
	listings map[int64]pgrepo.ListingRecord
	nextID   int64
}

func newMemoryListingStore() *memoryListingStore {
	return &memoryListingStore{
		listings: make(map[int64]pgrepo.ListingRecord),
		nextID:   1,
	}
}

func (s *memoryListingStore) Create(_ context.Context, ownerUserID int64, title string, durationDays, highlightDays int) (pgrepo.ListingRecord, error) {
	rec := pgrepo.ListingRecord{
		ID:            s.nextID,
		OwnerUserID:   ownerUserID,
		Title:         title,
		Status:        string(enums.ListingStatusPending),
		DurationDays:  durationDays,
		HighlightDays: highlightDays,
		CreatedAt:     time.Now().UTC(),
	}
	s.nextID++
	s.listings[rec.ID] = rec
	return rec, nil
}

func (s *memoryListingStore) Get(_ context.Context, listingID int64) (pgrepo.ListingRecord, error) {
	rec, ok := s.listings[listingID]
	if !ok {
		return pgrepo.ListingRecord{}, pgrepo.ErrListingNotFound
	}
	return rec, nil
}

func (s *memoryListingStore) MarkPaid(_ context.Context, listingID int64, status string, durationDays, highlightDays int) error {
	rec, ok := s.listings[listingID]
	if !ok {
		return pgrepo.ErrListingNotFound
	}
	rec.Status = status
	rec.DurationDays = durationDays
	rec.HighlightDays = highlightDays
	s.listings[listingID] = rec
	return nil
}

func (s *memoryListingStore) IncrementInterested(_ context.Context, listingID int64) (int, error) {
	rec, ok := s.listings[listingID]
	if !ok {
		return 0, pgrepo.ErrListingNotFound
	}
	rec.Interested++
	s.listings[listingID] = rec
	return rec.Interested, nil
}

// stubPrivileges implements the window arithmetic against a test-controlled
// clock.
type stubPrivileges struct {
	windows map[string]privsvc.Window
	now     func() time.Time
}

func newStubPrivileges(now func() time.Time) *stubPrivileges {
	return &stubPrivileges{
		windows: make(map[string]privsvc.Window),
		now:     now,
	}
}

func (s *stubPrivileges) Activate(_ context.Context, subjectID int64, kind enums.PrivilegeKind, duration time.Duration) (privsvc.Window, error) {
	started := s.now()
	window := privsvc.Window{
		SubjectID: subjectID,
		Kind:      kind,
		StartedAt: started,
		ExpiresAt: started.Add(duration),
	}
	s.windows[key(subjectID, kind)] = window
	return window, nil
}

func (s *stubPrivileges) Status(_ context.Context, subjectID int64, kind enums.PrivilegeKind) (privsvc.Status, error) {
	window, ok := s.windows[key(subjectID, kind)]
	if !ok {
		return privsvc.Status{}, nil
	}

	now := s.now()
	status := privsvc.Status{
		StartedAt: window.StartedAt,
		ExpiresAt: window.ExpiresAt,
	}
	if now.Before(window.ExpiresAt) {
		status.Active = true
		status.Remaining = window.ExpiresAt.Sub(now)
	}
	return status, nil
}

func key(subjectID int64, kind enums.PrivilegeKind) string {
	return fmt.Sprintf("%d:%s", subjectID, kind)
}

type testHarness struct {
	service *Service
	store   *memoryListingStore
	now     time.Time
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	store := newMemoryListingStore()
	h := &testHarness{
		store: store,
		now:   time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	h.service = NewService(store, newStubPrivileges(func() time.Time { return h.now }))
	return h
}

func (h *testHarness) publish(t *testing.T, durationDays, highlightDays int) int64 {
	t.Helper()

	quote, err := h.service.Publish(context.Background(), 71, "vaquejada em Caruaru", durationDays, highlightDays)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	return quote.Listing.ID
}

func TestPublishQuotesPriceAndStaysPending(t *testing.T) {
	h := newHarness(t)

	quote, err := h.service.Publish(context.Background(), 71, "festa junina", 30, 15)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if quote.Listing.Status != string(enums.ListingStatusPending) {
		t.Fatalf("new listing must be pending, got %q", quote.Listing.Status)
	}
	if quote.DurationPriceCents != rules.DurationPriceCents(30) {
		t.Fatalf("unexpected duration price: %d", quote.DurationPriceCents)
	}
	if quote.TotalCents != rules.DurationPriceCents(30)+rules.HighlightPriceCents(15) {
		t.Fatalf("unexpected total price: %d", quote.TotalCents)
	}

	status, err := h.service.GetStatus(context.Background(), quote.Listing.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != enums.ListingStatusPending || status.Active {
		t.Fatalf("pending listing must be inactive, got %+v", status)
	}
}

func TestPublishRejectsUnknownDuration(t *testing.T) {
	h := newHarness(t)

	if _, err := h.service.Publish(context.Background(), 71, "rodeio", 45, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for 45 days, got %v", err)
	}
}

func TestConfirmPaymentActivatesListing(t *testing.T) {
	h := newHarness(t)
	listingID := h.publish(t, 15, 15)

	status, err := h.service.ConfirmPayment(context.Background(), 71, listingID, PaymentResult{
		Provider:  "simulated",
		Reference: "pay-1",
		Succeeded: true,
	})
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if status.State != enums.ListingStatusActive || !status.Active {
		t.Fatalf("expected active listing, got %+v", status)
	}
	if !status.Highlighted {
		t.Fatalf("expected highlight window to start with the purchase")
	}
	if status.ActiveRemaining != 15*24*time.Hour {
		t.Fatalf("unexpected active remaining: %v", status.ActiveRemaining)
	}
}

func TestFailedPaymentKeepsListingPending(t *testing.T) {
	h := newHarness(t)
	listingID := h.publish(t, 15, 0)

	_, err := h.service.ConfirmPayment(context.Background(), 71, listingID, PaymentResult{
		Provider:  "simulated",
		Reference: "pay-2",
		Succeeded: false,
	})
	if !errors.Is(err, ErrPaymentNotConfirmed) {
		t.Fatalf("expected ErrPaymentNotConfirmed, got %v", err)
	}

	status, err := h.service.GetStatus(context.Background(), listingID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != enums.ListingStatusPending {
		t.Fatalf("failed payment must keep the listing pending, got %v", status.State)
	}
}

func TestRenewalStartsFreshFullWindow(t *testing.T) {
	h := newHarness(t)
	listingID := h.publish(t, 15, 0)

	confirmed := PaymentResult{Provider: "simulated", Reference: "pay-3", Succeeded: true}
	if _, err := h.service.ConfirmPayment(context.Background(), 71, listingID, confirmed); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	h.now = h.now.Add(7 * 24 * time.Hour)
	before, err := h.service.GetStatus(context.Background(), listingID)
	if err != nil {
		t.Fatalf("status before renew: %v", err)
	}
	if before.ActiveRemaining != 8*24*time.Hour {
		t.Fatalf("unexpected remaining before renew: %v", before.ActiveRemaining)
	}

	status, err := h.service.Renew(context.Background(), 71, listingID, false, PaymentResult{
		Provider: "simulated", Reference: "pay-4", Succeeded: true,
	})
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if status.State != enums.ListingStatusActive || !status.Active {
		t.Fatalf("expected active listing after renew, got %+v", status)
	}
	if status.ActiveRemaining != 15*24*time.Hour {
		t.Fatalf("renewal must grant a fresh full window, got %v", status.ActiveRemaining)
	}
}

func TestExpiredListingReportsExpired(t *testing.T) {
	h := newHarness(t)
	listingID := h.publish(t, 15, 0)

	if _, err := h.service.ConfirmPayment(context.Background(), 71, listingID, PaymentResult{
		Provider: "simulated", Reference: "pay-8", Succeeded: true,
	}); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	h.now = h.now.Add(16 * 24 * time.Hour)
	status, err := h.service.GetStatus(context.Background(), listingID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != enums.ListingStatusExpired || status.Active {
		t.Fatalf("expected expired listing, got %+v", status)
	}
}

func TestRenewalDoesNotTouchHighlightUnlessRequested(t *testing.T) {
	h := newHarness(t)
	listingID := h.publish(t, 30, 15)

	if _, err := h.service.ConfirmPayment(context.Background(), 71, listingID, PaymentResult{
		Provider: "simulated", Reference: "pay-5", Succeeded: true,
	}); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	h.now = h.now.Add(5 * 24 * time.Hour)
	before, err := h.service.GetStatus(context.Background(), listingID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !before.Highlighted || before.HighlightRemaining != 10*24*time.Hour {
		t.Fatalf("unexpected highlight before renew: %+v", before)
	}

	after, err := h.service.Renew(context.Background(), 71, listingID, false, PaymentResult{
		Provider: "simulated", Reference: "pay-6", Succeeded: true,
	})
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if !after.Highlighted {
		t.Fatalf("renewal without highlight must leave the running highlight window alone")
	}
	if after.HighlightRemaining != 10*24*time.Hour {
		t.Fatalf("renewal must not extend the highlight window, got %v", after.HighlightRemaining)
	}
	if after.ActiveRemaining != 30*24*time.Hour {
		t.Fatalf("renewal must restart the active window, got %v", after.ActiveRemaining)
	}
}

func TestRenewRequiresActivation(t *testing.T) {
	h := newHarness(t)
	listingID := h.publish(t, 15, 0)

	_, err := h.service.Renew(context.Background(), 71, listingID, false, PaymentResult{
		Provider: "simulated", Reference: "pay-7", Succeeded: true,
	})
	if !errors.Is(err, ErrNotActivated) {
		t.Fatalf("expected ErrNotActivated for pending listing, got %v", err)
	}
}

func TestOnlyOwnerManagesListing(t *testing.T) {
	h := newHarness(t)
	listingID := h.publish(t, 15, 0)

	confirmed := PaymentResult{Provider: "simulated", Reference: "pay-9", Succeeded: true}
	if _, err := h.service.ConfirmPayment(context.Background(), 72, listingID, confirmed); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on foreign confirm, got %v", err)
	}

	status, err := h.service.GetStatus(context.Background(), listingID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != enums.ListingStatusPending {
		t.Fatalf("foreign confirm must not activate the listing, got %v", status.State)
	}

	if _, err := h.service.ConfirmPayment(context.Background(), 71, listingID, confirmed); err != nil {
		t.Fatalf("owner confirm: %v", err)
	}
	if _, err := h.service.Renew(context.Background(), 72, listingID, false, confirmed); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on foreign renew, got %v", err)
	}
}

func TestMarkInterestedCounts(t *testing.T) {
	h := newHarness(t)
	listingID := h.publish(t, 15, 0)

	for want := 1; want <= 3; want++ {
		count, err := h.service.MarkInterested(context.Background(), listingID)
		if err != nil {
			t.Fatalf("mark interested #%d: %v", want, err)
		}
		if count != want {
			t.Fatalf("unexpected interested count: got %d want %d", count, want)
		}
	}

	if _, err := h.service.MarkInterested(context.Background(), 999); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}
