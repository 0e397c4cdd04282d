package calculator

import (
	"sort"

	"github.com/ferrante/splitledger/internal/models"
)

// BuildDebtGraph produces the complete set of pairwise debts actually
// observed in the raw history, for detailed "who owes whom" views. Unlike
// Simplify it re-walks the expenses so each beneficiary's share is attributed
// to the payer of that specific expense; completed settlements then pay down
// the from-member's debt toward the receiver. Opposite-direction debts
// between the same two members are netted into a single edge.
//
// Edges are emitted sorted by (from, to) member key, so output is
// reproducible across calls.
func BuildDebtGraph(currency string, expenses []models.ExpenseRecord, settlements []models.SettlementRecord) ([]models.DebtEdge, error) {
	// owed[debtor][creditor] = minor units, possibly negative after
	// settlements overshoot; netting resolves the sign.
	owed := make(map[string]map[string]int64)
	roster := make(map[string]models.Member)

	record := func(debtor, creditor models.Member, amount int64) {
		debtorKey, creditorKey := debtor.Key(), creditor.Key()
		if debtorKey == creditorKey {
			return
		}
		roster[debtorKey] = debtor
		roster[creditorKey] = creditor
		if owed[debtorKey] == nil {
			owed[debtorKey] = make(map[string]int64)
		}
		owed[debtorKey][creditorKey] += amount
	}

	for i := range expenses {
		expense := &expenses[i]
		if expense.Voided {
			continue
		}
		shares, err := beneficiaryShares(currency, expense)
		if err != nil {
			return nil, err
		}
		for _, share := range shares {
			record(share.member, expense.Payer, share.amount)
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
		record(settlement.From, settlement.To, -settlement.Amount)
	}

	// Net each unordered pair once. A fully settled pair nets to zero and
	// produces no edge.
	type pair struct{ low, high string }
	seen := make(map[pair]struct{})
	for debtorKey, creditors := range owed {
		for creditorKey := range creditors {
			p := pair{low: debtorKey, high: creditorKey}
			if p.low > p.high {
				p.low, p.high = p.high, p.low
			}
			seen[p] = struct{}{}
		}
	}

	var edges []models.DebtEdge
	for p := range seen {
		net := owed[p.low][p.high] - owed[p.high][p.low]
		switch {
		case net > 0:
			edges = append(edges, models.DebtEdge{From: roster[p.low], To: roster[p.high], Amount: net})
		case net < 0:
			edges = append(edges, models.DebtEdge{From: roster[p.high], To: roster[p.low], Amount: -net})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From.Key() != edges[j].From.Key() {
			return edges[i].From.Key() < edges[j].From.Key()
		}
		return edges[i].To.Key() < edges[j].To.Key()
	})
	return edges, nil
}
