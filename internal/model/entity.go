package model

// EntityType tags every record, identity mapping and sync manager.
type EntityType string

const (
	TypeUser        EntityType = "user"
	TypeGroup       EntityType = "group"
	TypePreference  EntityType = "preference"
	TypeMember      EntityType = "member"
	TypeAccount     EntityType = "account"
	TypeTransaction EntityType = "transaction"
	TypePayment     EntityType = "payment"
	TypeConversion  EntityType = "conversion"
)

// tiers orders entity types by their foreign-key dependencies. Types of a
// lower tier must finish syncing before a higher tier starts, so that
// identity mappings referenced by the higher tier exist by then.
var tiers = map[EntityType]int{
	TypeUser:        1,
	TypeGroup:       1,
	TypePreference:  2,
	TypeMember:      2,
	TypeAccount:     2,
	TypeTransaction: 3,
	TypePayment:     4,
	TypeConversion:  5,
}

// Tier returns the sync priority tier of t. Unknown types sort last.
func (t EntityType) Tier() int {
	if tier, ok := tiers[t]; ok {
		return tier
	}
	return len(tiers) + 1
}

// AllTypes lists every entity type in ascending tier order.
func AllTypes() []EntityType {
	return []EntityType{
		TypeUser, TypeGroup,
		TypePreference, TypeMember, TypeAccount,
		TypeTransaction,
		TypePayment,
		TypeConversion,
	}
}
