package rules

import (
	"testing"
	"time"

	"github.com/botalove/backend/internal/domain/enums"
)

func TestDayKeyUsesTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	utc := time.Date(2026, 2, 9, 1, 30, 0, 0, time.UTC)
	got := DayKey(utc, loc)
	want := "2026-02-08"
	if got != want {
		t.Fatalf("unexpected day key: got %s want %s", got, want)
	}
}

func TestDayKeyDefaultsToUTC(t *testing.T) {
	utc := time.Date(2026, 2, 8, 23, 59, 59, 0, time.UTC)
	got := DayKey(utc, nil)
	want := "2026-02-08"
	if got != want {
		t.Fatalf("unexpected day key: got %s want %s", got, want)
	}
}

func TestNextResetAtUsesTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	now := time.Date(2026, 2, 9, 1, 30, 0, 0, time.UTC) // 22:30 local, Feb 8
	got := NextResetAt(now, loc)
	want := time.Date(2026, 2, 9, 3, 0, 0, 0, time.UTC) // midnight local Feb 9
	if !got.Equal(want) {
		t.Fatalf("unexpected reset_at: got %s want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}

func TestDefaultTierLimits(t *testing.T) {
	bronze := DefaultTierLimits(enums.PlanTierBronze)
	if bronze.ViewsPerDay != DefaultViewsPerDayBronze {
		t.Fatalf("unexpected bronze view limit: %d", bronze.ViewsPerDay)
	}
	if bronze.LikesPerDay != DefaultLikesPerDayBronze {
		t.Fatalf("unexpected bronze like limit: %d", bronze.LikesPerDay)
	}

	for _, tier := range []enums.PlanTier{enums.PlanTierSilver, enums.PlanTierGold, enums.PlanTierPremium} {
		limits := DefaultTierLimits(tier)
		if limits.ViewsPerDay != Unlimited || limits.LikesPerDay != Unlimited {
			t.Fatalf("tier %s should be unlimited, got %+v", tier, limits)
		}
	}
}

func TestIsUnlimitedTier(t *testing.T) {
	if !IsUnlimitedTier(enums.PlanTierPremium) {
		t.Fatal("premium must bypass quota ledgers")
	}
	if IsUnlimitedTier(enums.PlanTierGold) {
		t.Fatal("gold still goes through the quota ledger")
	}
}

func TestListingPrices(t *testing.T) {
	if got := DurationPriceCents(30); got != 8990 {
		t.Fatalf("unexpected 30d duration price: %d", got)
	}
	if got := HighlightPriceCents(0); got != 0 {
		t.Fatalf("no highlight purchased must cost zero, got %d", got)
	}
	if got := DurationPriceCents(7); got != DurationPriceCents(15) {
		t.Fatalf("unknown duration must fall back to shortest tier, got %d", got)
	}
	if !IsListingDuration(90) || IsListingDuration(45) {
		t.Fatal("unexpected listing duration validation")
	}
}
