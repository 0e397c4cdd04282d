package service

import (
	"context"
	"fmt"

	"github.com/ferrante/splitledger/internal/calculator"
	"github.com/ferrante/splitledger/internal/models"
	"github.com/ferrante/splitledger/internal/storage"
)

// ExpenseInput is a caller-supplied expense: amounts in minor units, members
// as references (user ID or email) resolved against the group roster.
type ExpenseInput struct {
	Description     string
	Amount          int64
	Currency        string // empty means the group currency
	PayerRef        string
	BeneficiaryRefs []string
	Shares          []int64 // optional, parallel to BeneficiaryRefs
}

// SettlementInput is a caller-supplied settlement in the same reference form.
type SettlementInput struct {
	FromRef  string
	ToRef    string
	Amount   int64
	Currency string // empty means the group currency
	Note     string
}

// buildExpense validates an input against the group and resolves its member
// references. Validation here mirrors what the calculator enforces at read
// time, so a bad record is rejected before it can reach storage.
func buildExpense(ctx context.Context, store storage.Store, group *models.Group, input ExpenseInput) (*models.ExpenseRecord, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount %d: %w", input.Amount, calculator.ErrNonPositiveAmount)
	}
	currency, err := resolveCurrency(group, input.Currency)
	if err != nil {
		return nil, err
	}
	if len(input.BeneficiaryRefs) == 0 {
		return nil, calculator.ErrNoBeneficiaries
	}

	payer, err := resolveMember(ctx, store, group.ID, input.PayerRef)
	if err != nil {
		return nil, err
	}
	beneficiaries := make([]models.Member, len(input.BeneficiaryRefs))
	seen := make(map[string]struct{}, len(input.BeneficiaryRefs))
	for i, ref := range input.BeneficiaryRefs {
		if beneficiaries[i], err = resolveMember(ctx, store, group.ID, ref); err != nil {
			return nil, err
		}
		// Two refs can name the same person (id vs email), so compare keys.
		key := beneficiaries[i].Key()
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%q: %w", ref, calculator.ErrDuplicateBeneficiary)
		}
		seen[key] = struct{}{}
	}

	if len(input.Shares) > 0 {
		if len(input.Shares) != len(beneficiaries) {
			return nil, fmt.Errorf("%d shares for %d beneficiaries: %w",
				len(input.Shares), len(beneficiaries), calculator.ErrShareSumMismatch)
		}
		var sum int64
		for _, share := range input.Shares {
			if share < 0 {
				return nil, fmt.Errorf("negative share: %w", calculator.ErrNonPositiveAmount)
			}
			sum += share
		}
		if sum != input.Amount {
			return nil, fmt.Errorf("shares sum to %d, amount is %d: %w",
				sum, input.Amount, calculator.ErrShareSumMismatch)
		}
	}

	expense := &models.ExpenseRecord{
		GroupID:       group.ID,
		Description:   input.Description,
		Amount:        input.Amount,
		Currency:      currency,
		Payer:         payer,
		Beneficiaries: beneficiaries,
	}
	if len(input.Shares) > 0 {
		expense.Shares = input.Shares
	}
	return expense, nil
}

// buildSettlement validates a settlement input: positive amount, matching
// currency, both parties on the roster, payer distinct from receiver.
// Overpayment is deliberately allowed; it just flips the pair's balance.
func buildSettlement(ctx context.Context, store storage.Store, group *models.Group, input SettlementInput, createdBy string) (*models.SettlementRecord, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount %d: %w", input.Amount, calculator.ErrNonPositiveAmount)
	}
	currency, err := resolveCurrency(group, input.Currency)
	if err != nil {
		return nil, err
	}

	from, err := resolveMember(ctx, store, group.ID, input.FromRef)
	if err != nil {
		return nil, err
	}
	to, err := resolveMember(ctx, store, group.ID, input.ToRef)
	if err != nil {
		return nil, err
	}
	if from.Key() == to.Key() {
		return nil, ErrSelfSettlement
	}

	return &models.SettlementRecord{
		GroupID:   group.ID,
		From:      from,
		To:        to,
		Amount:    input.Amount,
		Currency:  currency,
		Status:    models.SettlementCompleted,
		CreatedBy: createdBy,
		Note:      input.Note,
	}, nil
}

func resolveCurrency(group *models.Group, currency string) (string, error) {
	if currency == "" || currency == group.Currency {
		return group.Currency, nil
	}
	return "", fmt.Errorf("got %s, group uses %s: %w", currency, group.Currency, calculator.ErrCurrencyMismatch)
}
