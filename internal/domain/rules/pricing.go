package rules

import "github.com/botalove/backend/internal/domain/enums"

// Listing price tables in cents, keyed by purchased duration in days.
// Unknown durations fall back to the shortest paid tier.

var durationPriceCents = map[int]int{
	15: 4990,
	30: 8990,
	60: 15990,
	90: 21990,
}

var highlightPriceCents = map[int]int{
	15: 2990,
	30: 4990,
	60: 7990,
	90: 9990,
}

func DurationPriceCents(days int) int {
	if price, ok := durationPriceCents[days]; ok {
		return price
	}
	return durationPriceCents[15]
}

func HighlightPriceCents(days int) int {
	if days <= 0 {
		return 0
	}
	if price, ok := highlightPriceCents[days]; ok {
		return price
	}
	return highlightPriceCents[15]
}

func IsListingDuration(days int) bool {
	_, ok := durationPriceCents[days]
	return ok
}

var skuPriceCents = map[enums.PurchaseSKU]int{
	enums.PurchaseSKUSuperLikePack3: 1490,
	enums.PurchaseSKUAnonMessage1:   990,
	enums.PurchaseSKUDirectMessage1: 990,
	enums.PurchaseSKUUndo1:          490,
	enums.PurchaseSKUBoost1:         1990,
	enums.PurchaseSKUPlanSilver1m:   2990,
	enums.PurchaseSKUPlanGold1m:     4990,
	enums.PurchaseSKUPlanPremium1m:  7990,
}

func SKUPriceCents(sku enums.PurchaseSKU) (int, bool) {
	price, ok := skuPriceCents[sku]
	return price, ok
}
