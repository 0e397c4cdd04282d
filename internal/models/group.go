package models

// Group is a set of members who share expenses in a single currency.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates").
	Name string

	// Currency is the ISO 4217 code every expense and settlement in the
	// group must use. There is no cross-currency netting.
	Currency string

	// Members is the group roster, registered and placeholder members alike.
	Members []Member

	// LedgerVersion increments on every expense or settlement write and
	// keys cached balance results.
	LedgerVersion int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether the given member key belongs to the roster.
func (g *Group) HasMember(key string) bool {
	for _, m := range g.Members {
		if m.Key() == key {
			return true
		}
	}
	return false
}
