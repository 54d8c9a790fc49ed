package enums

import "strings"

type ItemType string

const (
	ItemTypeSuperLike        ItemType = "super_like"
	ItemTypeAnonymousMessage ItemType = "anonymous_message"
	ItemTypeDirectMessage    ItemType = "direct_message"
	ItemTypeUndoSwipe        ItemType = "undo_swipe"
	ItemTypeBoost            ItemType = "boost"
)

func ParseItemType(raw string) (ItemType, bool) {
	switch ItemType(strings.ToLower(strings.TrimSpace(raw))) {
	case ItemTypeSuperLike:
		return ItemTypeSuperLike, true
	case ItemTypeAnonymousMessage:
		return ItemTypeAnonymousMessage, true
	case ItemTypeDirectMessage:
		return ItemTypeDirectMessage, true
	case ItemTypeUndoSwipe:
		return ItemTypeUndoSwipe, true
	case ItemTypeBoost:
		return ItemTypeBoost, true
	default:
		return "", false
	}
}
