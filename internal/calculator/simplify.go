package calculator

import (
	"container/heap"
	"fmt"

	"github.com/ferrante/splitledger/internal/models"
)

// party is one side of an outstanding position: a creditor or a debtor with
// the magnitude still unsettled.
type party struct {
	key    string
	member models.Member
	amount int64 // remaining magnitude, always > 0 while on the heap
}

// partyHeap is a max-heap on the remaining amount with an ascending-key
// tie-break, which makes extraction order fully deterministic.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }

func (h partyHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].key < h[j].key
}

func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }

func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Simplify reduces net balances to an ordered list of suggested settlement
// transactions. It greedily matches the largest remaining creditor with the
// largest remaining debtor; applying every suggestion in full brings each
// balance to exactly zero. The result is minimal for the common
// few-large-positions case, and never longer than creditors + debtors - 1
// transactions.
//
// If one partition drains before the other the inputs were unbalanced, which
// the balance calculator is supposed to make impossible; that is surfaced as
// ErrUnbalanced.
func Simplify(balances *Balances) ([]models.DebtEdge, error) {
	creditors := &partyHeap{}
	debtors := &partyHeap{}
	for _, nb := range balances.List() {
		switch {
		case nb.Amount > 0:
			*creditors = append(*creditors, party{key: nb.Member.Key(), member: nb.Member, amount: nb.Amount})
		case nb.Amount < 0:
			*debtors = append(*debtors, party{key: nb.Member.Key(), member: nb.Member, amount: -nb.Amount})
		}
	}
	heap.Init(creditors)
	heap.Init(debtors)

	suggestions := make([]models.DebtEdge, 0, creditors.Len()+debtors.Len())
	for creditors.Len() > 0 && debtors.Len() > 0 {
		creditor := heap.Pop(creditors).(party)
		debtor := heap.Pop(debtors).(party)

		amount := creditor.amount
		if debtor.amount < amount {
			amount = debtor.amount
		}
		suggestions = append(suggestions, models.DebtEdge{
			From:   debtor.member,
			To:     creditor.member,
			Amount: amount,
		})

		if creditor.amount -= amount; creditor.amount > 0 {
			heap.Push(creditors, creditor)
		}
		if debtor.amount -= amount; debtor.amount > 0 {
			heap.Push(debtors, debtor)
		}
	}

	if creditors.Len() > 0 || debtors.Len() > 0 {
		return nil, fmt.Errorf("%w: %d creditors and %d debtors left after matching",
			ErrUnbalanced, creditors.Len(), debtors.Len())
	}
	return suggestions, nil
}
