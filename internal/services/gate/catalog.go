package gate

import (
	"github.com/botalove/backend/internal/domain/enums"
	"github.com/botalove/backend/internal/domain/rules"
)

// The action catalog binds public action names to their costs. Everything
// chargeable in the product goes through here.
var catalog = map[string]Action{
	"profile.view":      {Name: "profile.view", Cost: QuotaCost(rules.QuotaActionProfileView)},
	"swipe.like":        {Name: "swipe.like", Cost: QuotaCost(rules.QuotaActionLike)},
	"swipe.super_like":  {Name: "swipe.super_like", Cost: InventoryCost(enums.ItemTypeSuperLike, 1)},
	"swipe.pass":        {Name: "swipe.pass", Cost: Free()},
	"swipe.undo":        {Name: "swipe.undo", Cost: InventoryCost(enums.ItemTypeUndoSwipe, 1)},
	"message.anonymous": {Name: "message.anonymous", Cost: InventoryCost(enums.ItemTypeAnonymousMessage, 1)},
	"message.direct":    {Name: "message.direct", Cost: InventoryCost(enums.ItemTypeDirectMessage, 1)},
	"boost.activate":    {Name: "boost.activate", Cost: InventoryCost(enums.ItemTypeBoost, 1)},
}

func ActionByName(name string) (Action, bool) {
	action, ok := catalog[name]
	return action, ok
}
