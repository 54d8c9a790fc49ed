package enums

import "strings"

type PurchaseSKU string

const (
	PurchaseSKUSuperLikePack3 PurchaseSKU = "superlike_pack_3"
	PurchaseSKUAnonMessage1   PurchaseSKU = "anonymous_message_1"
	PurchaseSKUDirectMessage1 PurchaseSKU = "direct_message_1"
	PurchaseSKUUndo1          PurchaseSKU = "undo_1"
	PurchaseSKUBoost1         PurchaseSKU = "boost_1"
	PurchaseSKUPlanSilver1m   PurchaseSKU = "plan_silver_1m"
	PurchaseSKUPlanGold1m     PurchaseSKU = "plan_gold_1m"
	PurchaseSKUPlanPremium1m  PurchaseSKU = "plan_premium_1m"
)

func ParsePurchaseSKU(raw string) (PurchaseSKU, bool) {
	switch PurchaseSKU(strings.ToLower(strings.TrimSpace(raw))) {
	case PurchaseSKUSuperLikePack3:
		return PurchaseSKUSuperLikePack3, true
	case PurchaseSKUAnonMessage1:
		return PurchaseSKUAnonMessage1, true
	case PurchaseSKUDirectMessage1:
		return PurchaseSKUDirectMessage1, true
	case PurchaseSKUUndo1:
		return PurchaseSKUUndo1, true
	case PurchaseSKUBoost1:
		return PurchaseSKUBoost1, true
	case PurchaseSKUPlanSilver1m:
		return PurchaseSKUPlanSilver1m, true
	case PurchaseSKUPlanGold1m:
		return PurchaseSKUPlanGold1m, true
	case PurchaseSKUPlanPremium1m:
		return PurchaseSKUPlanPremium1m, true
	default:
		return "", false
	}
}
