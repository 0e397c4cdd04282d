package calculator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ferrante/splitledger/internal/models"
)

// applySuggestions replays the suggested transactions against a copy of the
// balances and returns what remains.
func applySuggestions(balances *Balances, suggestions []models.DebtEdge) map[string]int64 {
	remaining := make(map[string]int64)
	for _, nb := range balances.List() {
		remaining[nb.Member.Key()] = nb.Amount
	}
	for _, edge := range suggestions {
		remaining[edge.From.Key()] += edge.Amount
		remaining[edge.To.Key()] -= edge.Amount
	}
	return remaining
}

type suggestion struct {
	from, to string
	amount   int64
}

func flatten(edges []models.DebtEdge) []suggestion {
	out := make([]suggestion, 0, len(edges))
	for _, e := range edges {
		out = append(out, suggestion{from: e.From.Key(), to: e.To.Key(), amount: e.Amount})
	}
	return out
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name        string
		expenses    []models.ExpenseRecord
		settlements []models.SettlementRecord
		want        []suggestion
	}{
		{
			name:     "one creditor two equal debtors",
			expenses: []models.ExpenseRecord{expense("e1", 300, alice, alice, bob, carol)},
			// Tie between bob and carol resolves by key.
			want: []suggestion{{"bob", "alice", 100}, {"carol", "alice", 100}},
		},
		{
			name:     "single pair",
			expenses: []models.ExpenseRecord{expense("e1", 100, alice, bob)},
			want:     []suggestion{{"bob", "alice", 100}},
		},
		{
			name:        "settled member drops out",
			expenses:    []models.ExpenseRecord{expense("e1", 90, alice, alice, bob, carol)},
			settlements: []models.SettlementRecord{completedSettlement("s1", 30, bob, alice)},
			want:        []suggestion{{"carol", "alice", 30}},
		},
		{
			name: "largest positions matched first",
			expenses: []models.ExpenseRecord{
				expense("e1", 300, alice, bob),  // bob owes alice 300
				expense("e2", 100, carol, dave), // dave owes carol 100
			},
			want: []suggestion{{"bob", "alice", 300}, {"dave@example.com", "carol", 100}},
		},
		{
			name: "debtor split across creditors",
			expenses: []models.ExpenseRecord{
				expense("e1", 300, alice, bob),
				expense("e2", 200, carol, bob),
			},
			// bob owes 500 total; alice is the larger creditor.
			want: []suggestion{{"bob", "alice", 300}, {"bob", "carol", 200}},
		},
		{
			name:     "fully settled group yields nothing",
			expenses: []models.ExpenseRecord{expense("e1", 100, alice, alice)},
			want:     []suggestion{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, err := ComputeBalances(testCurrency, tt.expenses, tt.settlements)
			if err != nil {
				t.Fatalf("ComputeBalances() failed: %v", err)
			}
			suggestions, err := Simplify(balances)
			if err != nil {
				t.Fatalf("Simplify() failed: %v", err)
			}

			if got := flatten(suggestions); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("suggestions = %v, want %v", got, tt.want)
			}

			for key, left := range applySuggestions(balances, suggestions) {
				if left != 0 {
					t.Errorf("after applying suggestions %s still at %d, want 0", key, left)
				}
			}
		})
	}
}

func TestSimplifyProperties(t *testing.T) {
	expenses := []models.ExpenseRecord{
		expense("e1", 10001, alice, alice, bob, carol),
		expense("e2", 777, bob, alice, carol, dave),
		expense("e3", 5000, carol, alice, dave),
		expense("e4", 33, dave, bob),
	}
	settlements := []models.SettlementRecord{
		completedSettlement("s1", 1200, bob, alice),
	}

	balances, err := ComputeBalances(testCurrency, expenses, settlements)
	if err != nil {
		t.Fatalf("ComputeBalances() failed: %v", err)
	}
	suggestions, err := Simplify(balances)
	if err != nil {
		t.Fatalf("Simplify() failed: %v", err)
	}

	t.Run("applying suggestions zeroes every balance", func(t *testing.T) {
		for key, left := range applySuggestions(balances, suggestions) {
			if left != 0 {
				t.Errorf("%s left at %d, want 0", key, left)
			}
		}
	})

	t.Run("transaction count within greedy bound", func(t *testing.T) {
		var creditorCount, debtorCount int
		for _, nb := range balances.List() {
			if nb.Amount > 0 {
				creditorCount++
			} else if nb.Amount < 0 {
				debtorCount++
			}
		}
		if bound := creditorCount + debtorCount - 1; len(suggestions) > bound {
			t.Errorf("got %d suggestions, bound is %d", len(suggestions), bound)
		}
	})

	t.Run("repeat runs are identical", func(t *testing.T) {
		again, err := Simplify(balances)
		if err != nil {
			t.Fatalf("Simplify() failed: %v", err)
		}
		if !reflect.DeepEqual(suggestions, again) {
			t.Errorf("repeat run differs:\n first = %v\nsecond = %v", suggestions, again)
		}
	})
}

func TestSimplifyUnbalancedInput(t *testing.T) {
	// Hand-built balances that violate conservation; the simplifier must
	// refuse rather than emit a suggestion list that cannot zero out.
	balances := NewBalances()
	balances.add(alice, 100)
	balances.add(bob, -40)

	_, err := Simplify(balances)
	if !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("Simplify() error = %v, want ErrUnbalanced", err)
	}
}

func TestSimplifyEmpty(t *testing.T) {
	suggestions, err := Simplify(NewBalances())
	if err != nil {
		t.Fatalf("Simplify() failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("expected no suggestions, got %v", suggestions)
	}
}
