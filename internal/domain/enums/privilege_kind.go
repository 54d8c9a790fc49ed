package enums

import "strings"

type PrivilegeKind string

const (
	PrivilegeKindBoost            PrivilegeKind = "boost"
	PrivilegeKindListingActive    PrivilegeKind = "listing_active"
	PrivilegeKindListingHighlight PrivilegeKind = "listing_highlight"
)

func ParsePrivilegeKind(raw string) (PrivilegeKind, bool) {
	switch PrivilegeKind(strings.ToLower(strings.TrimSpace(raw))) {
	case PrivilegeKindBoost:
		return PrivilegeKindBoost, true
	case PrivilegeKindListingActive:
		return PrivilegeKindListingActive, true
	case PrivilegeKindListingHighlight:
		return PrivilegeKindListingHighlight, true
	default:
		return "", false
	}
}
