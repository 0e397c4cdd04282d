package models

// SettlementStatus tracks whether a settlement has actually been paid.
// Only completed settlements affect balances.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementCompleted SettlementStatus = "completed"
)

// SettlementRecord represents a real payment between two group members to
// clear debt.
type SettlementRecord struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// From is the member who paid (debtor settling up).
	From Member

	// To is the member who received payment (creditor being paid).
	To Member

	// Amount is the payment amount in minor units. Always positive.
	Amount int64

	// Currency is the ISO 4217 code; must match the group currency.
	Currency string

	// Status is pending until the payment is confirmed.
	Status SettlementStatus

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string
}
