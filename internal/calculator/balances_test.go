package calculator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ferrante/splitledger/internal/models"
)

const testCurrency = "USD"

var (
	alice = models.RegisteredMember("alice", "Alice")
	bob   = models.RegisteredMember("bob", "Bob")
	carol = models.RegisteredMember("carol", "Carol")
	dave  = models.UnregisteredMember("dave@example.com", "Dave")
)

func expense(id string, amount int64, payer models.Member, beneficiaries ...models.Member) models.ExpenseRecord {
	return models.ExpenseRecord{
		ID:            id,
		Amount:        amount,
		Currency:      testCurrency,
		Payer:         payer,
		Beneficiaries: beneficiaries,
	}
}

func completedSettlement(id string, amount int64, from, to models.Member) models.SettlementRecord {
	return models.SettlementRecord{
		ID:       id,
		Amount:   amount,
		Currency: testCurrency,
		From:     from,
		To:       to,
		Status:   models.SettlementCompleted,
	}
}

func TestComputeBalances(t *testing.T) {
	tests := []struct {
		name        string
		expenses    []models.ExpenseRecord
		settlements []models.SettlementRecord
		wantErr     error
		want        map[string]int64 // member key -> net balance
	}{
		{
			name:     "three-way equal split",
			expenses: []models.ExpenseRecord{expense("e1", 300, alice, alice, bob, carol)},
			want:     map[string]int64{"alice": 200, "bob": -100, "carol": -100},
		},
		{
			name:     "payer not a beneficiary",
			expenses: []models.ExpenseRecord{expense("e1", 100, alice, bob)},
			want:     map[string]int64{"alice": 100, "bob": -100},
		},
		{
			name:        "settlement pays down debt",
			expenses:    []models.ExpenseRecord{expense("e1", 90, alice, alice, bob, carol)},
			settlements: []models.SettlementRecord{completedSettlement("s1", 30, bob, alice)},
			want:        map[string]int64{"alice": 30, "bob": 0, "carol": -30},
		},
		{
			name:     "remainder goes to first members in key order",
			expenses: []models.ExpenseRecord{expense("e1", 100, alice, alice, bob, carol)},
			// 100 over three: alice 34, bob 33, carol 33.
			want: map[string]int64{"alice": 66, "bob": -33, "carol": -33},
		},
		{
			name: "explicit shares",
			expenses: []models.ExpenseRecord{{
				ID:            "e1",
				Amount:        100,
				Currency:      testCurrency,
				Payer:         alice,
				Beneficiaries: []models.Member{bob, carol},
				Shares:        []int64{70, 30},
			}},
			want: map[string]int64{"alice": 100, "bob": -70, "carol": -30},
		},
		{
			name:        "pending settlement ignored",
			expenses:    []models.ExpenseRecord{expense("e1", 100, alice, bob)},
			settlements: []models.SettlementRecord{{ID: "s1", Amount: 100, Currency: testCurrency, From: bob, To: alice, Status: models.SettlementPending}},
			want:        map[string]int64{"alice": 100, "bob": -100},
		},
		{
			name: "voided expense ignored",
			expenses: []models.ExpenseRecord{
				expense("e1", 100, alice, bob),
				{ID: "e2", Amount: 500, Currency: testCurrency, Payer: bob, Beneficiaries: []models.Member{alice}, Voided: true},
			},
			want: map[string]int64{"alice": 100, "bob": -100},
		},
		{
			name:     "unregistered member keyed by email",
			expenses: []models.ExpenseRecord{expense("e1", 40, alice, alice, dave)},
			want:     map[string]int64{"alice": 20, "dave@example.com": -20},
		},
		{
			name: "currency mismatch rejected",
			expenses: []models.ExpenseRecord{{
				ID: "e1", Amount: 100, Currency: "EUR", Payer: alice, Beneficiaries: []models.Member{bob},
			}},
			wantErr: ErrCurrencyMismatch,
		},
		{
			name:     "no beneficiaries rejected",
			expenses: []models.ExpenseRecord{{ID: "e1", Amount: 100, Currency: testCurrency, Payer: alice}},
			wantErr:  ErrNoBeneficiaries,
		},
		{
			name:     "non-positive amount rejected",
			expenses: []models.ExpenseRecord{expense("e1", 0, alice, bob)},
			wantErr:  ErrNonPositiveAmount,
		},
		{
			name: "share sum mismatch rejected",
			expenses: []models.ExpenseRecord{{
				ID:            "e1",
				Amount:        100,
				Currency:      testCurrency,
				Payer:         alice,
				Beneficiaries: []models.Member{bob, carol},
				Shares:        []int64{70, 40},
			}},
			wantErr: ErrShareSumMismatch,
		},
		{
			name:     "duplicate beneficiary rejected",
			expenses: []models.ExpenseRecord{expense("e1", 100, alice, bob, bob)},
			wantErr:  ErrDuplicateBeneficiary,
		},
		{
			name: "duplicate beneficiary by key rejected",
			expenses: []models.ExpenseRecord{
				// Same person referenced through two Member shapes.
				expense("e1", 100, alice, dave, models.UnregisteredMember("DAVE@example.com", "D")),
			},
			wantErr: ErrDuplicateBeneficiary,
		},
		{
			name: "settlement currency mismatch rejected",
			settlements: []models.SettlementRecord{{
				ID: "s1", Amount: 10, Currency: "EUR", From: bob, To: alice, Status: models.SettlementCompleted,
			}},
			wantErr: ErrCurrencyMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, err := ComputeBalances(testCurrency, tt.expenses, tt.settlements)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeBalances() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeBalances() failed: %v", err)
			}

			if sum := balances.Sum(); sum != 0 {
				t.Errorf("balances sum to %d, want 0", sum)
			}

			got := make(map[string]int64)
			for _, nb := range balances.List() {
				got[nb.Member.Key()] = nb.Amount
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("balances = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeBalancesConservation(t *testing.T) {
	// A messier history: uneven splits, explicit shares, settlements,
	// overpayment. Whatever the numbers, they must sum to zero.
	expenses := []models.ExpenseRecord{
		expense("e1", 10001, alice, alice, bob, carol),
		expense("e2", 777, bob, alice, carol, dave),
		expense("e3", 33, carol, dave),
		{
			ID: "e4", Amount: 900, Currency: testCurrency, Payer: dave,
			Beneficiaries: []models.Member{alice, bob, carol},
			Shares:        []int64{450, 300, 150},
		},
	}
	settlements := []models.SettlementRecord{
		completedSettlement("s1", 2500, bob, alice),
		completedSettlement("s2", 9999, carol, alice), // overpays
	}

	balances, err := ComputeBalances(testCurrency, expenses, settlements)
	if err != nil {
		t.Fatalf("ComputeBalances() failed: %v", err)
	}
	if sum := balances.Sum(); sum != 0 {
		t.Errorf("balances sum to %d, want 0", sum)
	}
}

func TestComputeBalancesDeterministic(t *testing.T) {
	expenses := []models.ExpenseRecord{
		expense("e1", 100, alice, alice, bob, carol),
		expense("e2", 1000, bob, alice, bob, carol, dave),
	}

	first, err := ComputeBalances(testCurrency, expenses, nil)
	if err != nil {
		t.Fatalf("ComputeBalances() failed: %v", err)
	}
	second, err := ComputeBalances(testCurrency, expenses, nil)
	if err != nil {
		t.Fatalf("ComputeBalances() failed: %v", err)
	}

	if !reflect.DeepEqual(first.List(), second.List()) {
		t.Errorf("repeat runs differ:\n first = %v\nsecond = %v", first.List(), second.List())
	}
}
