package calculator

import "github.com/ferrante/splitledger/internal/models"

// ProjectExpense returns the balances and settlement suggestions that would
// result if the hypothetical expense were added to the snapshot. The inputs
// are never mutated and nothing is persisted, so concurrent projections and
// real settlement recording cannot interfere.
func ProjectExpense(currency string, expenses []models.ExpenseRecord, settlements []models.SettlementRecord, hypothetical models.ExpenseRecord) (*models.Projection, error) {
	combined := make([]models.ExpenseRecord, 0, len(expenses)+1)
	combined = append(combined, expenses...)
	combined = append(combined, hypothetical)
	return project(currency, combined, settlements)
}

// ProjectSettlement is ProjectExpense for a hypothetical settlement. The
// record is treated as completed regardless of its stated status, since the
// point of the projection is "what if this payment happened".
func ProjectSettlement(currency string, expenses []models.ExpenseRecord, settlements []models.SettlementRecord, hypothetical models.SettlementRecord) (*models.Projection, error) {
	hypothetical.Status = models.SettlementCompleted
	combined := make([]models.SettlementRecord, 0, len(settlements)+1)
	combined = append(combined, settlements...)
	combined = append(combined, hypothetical)
	return project(currency, expenses, combined)
}

func project(currency string, expenses []models.ExpenseRecord, settlements []models.SettlementRecord) (*models.Projection, error) {
	balances, err := ComputeBalances(currency, expenses, settlements)
	if err != nil {
		return nil, err
	}
	suggestions, err := Simplify(balances)
	if err != nil {
		return nil, err
	}
	return &models.Projection{Balances: balances.List(), Suggestions: suggestions}, nil
}
