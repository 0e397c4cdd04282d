package models

// ExpenseRecord is one shared expense as read from storage. The balance
// engine treats it as an immutable snapshot row.
type ExpenseRecord struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is the human-readable label (e.g., "Groceries").
	Description string

	// Amount is the full expense amount in minor units. Always positive.
	Amount int64

	// Currency is the ISO 4217 code. Must match the group currency; a
	// mismatch is a data-integrity error, never silently coerced.
	Currency string

	// Payer is the member who paid the full amount.
	Payer Member

	// Beneficiaries is the non-empty set of members the expense is split
	// among. The payer may or may not be included.
	Beneficiaries []Member

	// Shares optionally gives each beneficiary's exact share in minor
	// units, parallel to Beneficiaries. When nil the expense is split
	// equally. When set, the shares must sum to Amount.
	Shares []int64

	// CreatedAt is the Unix timestamp when the expense was logged.
	CreatedAt int64

	// Voided marks soft-deleted expenses. Voided expenses never reach the
	// calculator; the store filters them out.
	Voided bool
}
