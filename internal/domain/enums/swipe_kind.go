package enums

type SwipeKind string

const (
	SwipeKindLike      SwipeKind = "LIKE"
	SwipeKindSuperLike SwipeKind = "SUPERLIKE"
	SwipeKindPass      SwipeKind = "PASS"
)
