// Package calculator implements the balance and debt-simplification engine:
// net balances per member, the detailed pairwise debt graph, greedy settlement
// suggestions, and what-if projections. Every function here is a pure function
// of its input snapshot and safe for concurrent use.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ferrante/splitledger/internal/models"
)

// Validation errors: bad input records, reported to the caller.
var (
	ErrCurrencyMismatch     = errors.New("record currency does not match group currency")
	ErrNoBeneficiaries      = errors.New("expense has no beneficiaries")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
	ErrShareSumMismatch     = errors.New("explicit shares do not sum to the expense amount")
	ErrDuplicateBeneficiary = errors.New("expense lists the same beneficiary more than once")
)

// ErrUnbalanced is an internal-consistency error: the computed balances do
// not sum to zero, or the simplifier could not drain creditors and debtors
// together. It indicates a defect, not a user mistake, and is never swallowed.
var ErrUnbalanced = errors.New("net balances do not sum to zero")

// Balances holds one signed minor-unit amount per member, keyed by the
// normalized member key so id-shaped and email-shaped references to the same
// person collapse into one entry.
type Balances struct {
	amounts map[string]int64
	members map[string]models.Member
}

// NewBalances returns an empty balance set.
func NewBalances() *Balances {
	return &Balances{
		amounts: make(map[string]int64),
		members: make(map[string]models.Member),
	}
}

func (b *Balances) add(m models.Member, delta int64) {
	key := m.Key()
	if _, ok := b.members[key]; !ok {
		b.members[key] = m
	}
	b.amounts[key] += delta
}

// Amount returns the member's net balance, zero if the member is unknown.
func (b *Balances) Amount(m models.Member) int64 {
	return b.amounts[m.Key()]
}

// Len returns the number of members with a balance entry.
func (b *Balances) Len() int {
	return len(b.amounts)
}

// Sum returns the total across all members. Zero whenever the conservation
// invariant holds.
func (b *Balances) Sum() int64 {
	var sum int64
	for _, amount := range b.amounts {
		sum += amount
	}
	return sum
}

// List returns every member's net balance sorted by member key, so repeated
// calls over the same snapshot produce identical output.
func (b *Balances) List() []models.NetBalance {
	keys := make([]string, 0, len(b.amounts))
	for key := range b.amounts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]models.NetBalance, 0, len(keys))
	for _, key := range keys {
		out = append(out, models.NetBalance{Member: b.members[key], Amount: b.amounts[key]})
	}
	return out
}

// ComputeBalances reduces a group's expense and settlement history to one net
// balance per member. Expenses credit the payer with the full amount and debit
// each beneficiary by their share; completed settlements credit the payer and
// debit the receiver. All arithmetic is in integer minor units.
//
// Postcondition: the returned balances sum to exactly zero. A violation is
// returned as ErrUnbalanced rather than ignored, since any downstream output
// built on unbalanced numbers would be financially wrong.
func ComputeBalances(currency string, expenses []models.ExpenseRecord, settlements []models.SettlementRecord) (*Balances, error) {
	balances := NewBalances()

	for i := range expenses {
		expense := &expenses[i]
		if expense.Voided {
			continue
		}
		shares, err := beneficiaryShares(currency, expense)
		if err != nil {
			return nil, err
		}

		balances.add(expense.Payer, expense.Amount)
		for _, share := range shares {
			balances.add(share.member, -share.amount)
		}
	}

	for i := range settlements {
		settlement := &settlements[i]
		if settlement.Status != models.SettlementCompleted {
			continue
		}
		if err := checkSettlement(currency, settlement); err != nil {
			return nil, err
		}
		// The payer settled part of their debt; the receiver's claim on the
		// group shrinks by the same amount.
		balances.add(settlement.From, settlement.Amount)
		balances.add(settlement.To, -settlement.Amount)
	}

	if sum := balances.Sum(); sum != 0 {
		return nil, fmt.Errorf("%w: off by %d minor units", ErrUnbalanced, sum)
	}
	return balances, nil
}

// memberShare is one beneficiary's slice of an expense.
type memberShare struct {
	member models.Member
	amount int64
}

// beneficiaryShares splits an expense across its beneficiaries, validating
// the record on the way. Equal splits assign the integer-division remainder
// one minor unit at a time to the first beneficiaries in ascending member-key
// order, so the shares always sum to the expense amount and the assignment is
// identical on every run.
func beneficiaryShares(currency string, expense *models.ExpenseRecord) ([]memberShare, error) {
	if expense.Amount <= 0 {
		return nil, fmt.Errorf("expense %s: amount %d: %w", expense.ID, expense.Amount, ErrNonPositiveAmount)
	}
	if expense.Currency != currency {
		return nil, fmt.Errorf("expense %s: got %s, want %s: %w", expense.ID, expense.Currency, currency, ErrCurrencyMismatch)
	}
	if len(expense.Beneficiaries) == 0 {
		return nil, fmt.Errorf("expense %s: %w", expense.ID, ErrNoBeneficiaries)
	}
	keys := make(map[string]struct{}, len(expense.Beneficiaries))
	for _, m := range expense.Beneficiaries {
		if _, ok := keys[m.Key()]; ok {
			return nil, fmt.Errorf("expense %s: %s: %w", expense.ID, m.Key(), ErrDuplicateBeneficiary)
		}
		keys[m.Key()] = struct{}{}
	}

	if expense.Shares != nil {
		if len(expense.Shares) != len(expense.Beneficiaries) {
			return nil, fmt.Errorf("expense %s: %d shares for %d beneficiaries: %w",
				expense.ID, len(expense.Shares), len(expense.Beneficiaries), ErrShareSumMismatch)
		}
		var sum int64
		shares := make([]memberShare, len(expense.Beneficiaries))
		for i, m := range expense.Beneficiaries {
			if expense.Shares[i] < 0 {
				return nil, fmt.Errorf("expense %s: share for %s: %w", expense.ID, m.Key(), ErrNonPositiveAmount)
			}
			shares[i] = memberShare{member: m, amount: expense.Shares[i]}
			sum += expense.Shares[i]
		}
		if sum != expense.Amount {
			return nil, fmt.Errorf("expense %s: shares sum to %d, amount is %d: %w",
				expense.ID, sum, expense.Amount, ErrShareSumMismatch)
		}
		return shares, nil
	}

	sorted := make([]models.Member, len(expense.Beneficiaries))
	copy(sorted, expense.Beneficiaries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })

	n := int64(len(sorted))
	base := expense.Amount / n
	remainder := expense.Amount % n

	shares := make([]memberShare, len(sorted))
	for i, m := range sorted {
		share := base
		if int64(i) < remainder {
			share++
		}
		shares[i] = memberShare{member: m, amount: share}
	}
	return shares, nil
}

func checkSettlement(currency string, settlement *models.SettlementRecord) error {
	if settlement.Amount <= 0 {
		return fmt.Errorf("settlement %s: amount %d: %w", settlement.ID, settlement.Amount, ErrNonPositiveAmount)
	}
	if settlement.Currency != currency {
		return fmt.Errorf("settlement %s: got %s, want %s: %w", settlement.ID, settlement.Currency, currency, ErrCurrencyMismatch)
	}
	return nil
}
