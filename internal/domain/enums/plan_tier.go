package enums

import "strings"

type PlanTier string

const (
	PlanTierBronze  PlanTier = "bronze"
	PlanTierSilver  PlanTier = "silver"
	PlanTierGold    PlanTier = "gold"
	PlanTierPremium PlanTier = "premium"
)

func ParsePlanTier(raw string) (PlanTier, bool) {
	switch PlanTier(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanTierBronze:
		return PlanTierBronze, true
	case PlanTierSilver:
		return PlanTierSilver, true
	case PlanTierGold:
		return PlanTierGold, true
	case PlanTierPremium:
		return PlanTierPremium, true
	default:
		return "", false
	}
}
