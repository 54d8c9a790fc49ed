package rules

import (
	"time"

	"github.com/botalove/backend/internal/domain/enums"
)

// Unlimited marks a quota that is never exhausted. It is a sentinel, never a
// large number, so callers must not do arithmetic on it.
const Unlimited = -1

const (
	QuotaActionProfileView = "profile_view"
	QuotaActionLike        = "like"
)

const (
	DefaultViewsPerDayBronze = 20
	DefaultLikesPerDayBronze = 25
)

type TierLimits struct {
	ViewsPerDay int
	LikesPerDay int
}

func DefaultTierLimits(tier enums.PlanTier) TierLimits {
	switch tier {
	case enums.PlanTierSilver, enums.PlanTierGold, enums.PlanTierPremium:
		return TierLimits{
			ViewsPerDay: Unlimited,
			LikesPerDay: Unlimited,
		}
	default:
		return TierLimits{
			ViewsPerDay: DefaultViewsPerDayBronze,
			LikesPerDay: DefaultLikesPerDayBronze,
		}
	}
}

func (l TierLimits) ForAction(action string) int {
	switch action {
	case QuotaActionProfileView:
		return l.ViewsPerDay
	case QuotaActionLike:
		return l.LikesPerDay
	default:
		return 0
	}
}

// IsUnlimitedTier reports whether the tier bypasses every quota ledger,
// regardless of per-action limit overrides.
func IsUnlimitedTier(tier enums.PlanTier) bool {
	return tier == enums.PlanTierPremium
}

func DayKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}

func NextResetAt(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return next.UTC()
}
