package models

// NetBalance is one member's aggregate position across all expenses and
// settlements. Positive = the group owes this member, negative = this member
// owes the group. The sum over a group is always exactly zero.
type NetBalance struct {
	Member Member
	Amount int64
}

// DebtEdge is a directed debt: From owes To the given amount (minor units,
// always positive). Edges never self-loop and a pair appears in at most one
// direction.
type DebtEdge struct {
	From   Member
	To     Member
	Amount int64
}

// Projection is the result of a what-if simulation: the balances and
// settlement suggestions that would hold if one hypothetical record were
// added to the ledger. Nothing in a Projection is ever persisted.
type Projection struct {
	Balances    []NetBalance
	Suggestions []DebtEdge
}
