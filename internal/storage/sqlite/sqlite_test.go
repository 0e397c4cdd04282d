package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ferrante/splitledger/internal/models"
	"github.com/ferrante/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestGroup(t *testing.T, store *SQLiteStore, members ...models.Member) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:     "Roommates",
		Currency: "USD",
		Members:  members,
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestGroupRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := models.RegisteredMember("user-alice", "Alice")
	dave := models.UnregisteredMember("Dave@Example.com", "Dave")
	group := newTestGroup(t, store, alice, dave)

	if group.ID == "" {
		t.Error("expected group ID to be generated")
	}
	if group.CreatedAt == 0 {
		t.Error("expected CreatedAt to be set")
	}

	retrieved, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if retrieved.Currency != "USD" {
		t.Errorf("currency = %s, want USD", retrieved.Currency)
	}
	if retrieved.LedgerVersion != 0 {
		t.Errorf("fresh group ledger version = %d, want 0", retrieved.LedgerVersion)
	}
	if len(retrieved.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(retrieved.Members))
	}

	t.Run("GetGroup returns ErrNotFound for unknown group", func(t *testing.T) {
		if _, err := store.GetGroup(ctx, "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ResolveMember by id, key, and email", func(t *testing.T) {
		for _, ref := range []string{"user-alice"} {
			member, err := store.ResolveMember(ctx, group.ID, ref)
			if err != nil {
				t.Fatalf("ResolveMember(%q) failed: %v", ref, err)
			}
			if member.Key() != "user-alice" {
				t.Errorf("ResolveMember(%q).Key() = %s", ref, member.Key())
			}
		}

		// Email lookups normalize case.
		member, err := store.ResolveMember(ctx, group.ID, "DAVE@example.COM")
		if err != nil {
			t.Fatalf("ResolveMember by email failed: %v", err)
		}
		if member.Key() != "dave@example.com" {
			t.Errorf("member key = %s, want dave@example.com", member.Key())
		}
		if member.Registered() {
			t.Error("placeholder member should not be registered")
		}

		if _, err := store.ResolveMember(ctx, group.ID, "stranger"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("AddGroupMembers skips existing keys", func(t *testing.T) {
		bob := models.RegisteredMember("user-bob", "Bob")
		if err := store.AddGroupMembers(ctx, group.ID, []models.Member{bob, alice}); err != nil {
			t.Fatalf("AddGroupMembers failed: %v", err)
		}
		retrieved, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(retrieved.Members) != 3 {
			t.Errorf("members = %d, want 3", len(retrieved.Members))
		}
	})
}

func TestExpenseRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := models.RegisteredMember("user-alice", "Alice")
	bob := models.RegisteredMember("user-bob", "Bob")
	group := newTestGroup(t, store, alice, bob)

	expense := &models.ExpenseRecord{
		GroupID:       group.ID,
		Description:   "Groceries",
		Amount:        2599,
		Currency:      "USD",
		Payer:         alice,
		Beneficiaries: []models.Member{alice, bob},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if expense.ID == "" {
		t.Error("expected expense ID to be generated")
	}

	version, err := store.LedgerVersion(ctx, group.ID)
	if err != nil {
		t.Fatalf("LedgerVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("ledger version after one write = %d, want 1", version)
	}

	expenses, err := store.ListExpenses(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expenses = %d, want 1", len(expenses))
	}
	got := expenses[0]
	if got.Amount != 2599 || got.Payer.Key() != "user-alice" {
		t.Errorf("unexpected expense: %+v", got)
	}
	if len(got.Beneficiaries) != 2 {
		t.Errorf("beneficiaries = %d, want 2", len(got.Beneficiaries))
	}
	if got.Shares != nil {
		t.Errorf("equal-split expense should have nil shares, got %v", got.Shares)
	}

	t.Run("explicit shares survive the round trip", func(t *testing.T) {
		withShares := &models.ExpenseRecord{
			GroupID:       group.ID,
			Description:   "Concert tickets",
			Amount:        9000,
			Currency:      "USD",
			Payer:         bob,
			Beneficiaries: []models.Member{alice, bob},
			Shares:        []int64{6000, 3000},
		}
		if err := store.CreateExpense(ctx, withShares); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expenses, err := store.ListExpenses(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		var found *models.ExpenseRecord
		for i := range expenses {
			if expenses[i].ID == withShares.ID {
				found = &expenses[i]
			}
		}
		if found == nil {
			t.Fatal("expense with shares not listed")
		}
		// Beneficiaries come back in member-key order with shares aligned.
		var total int64
		for _, share := range found.Shares {
			total += share
		}
		if total != 9000 {
			t.Errorf("shares sum to %d, want 9000", total)
		}
	})

	t.Run("voided expenses are not listed", func(t *testing.T) {
		if err := store.VoidExpense(ctx, group.ID, expense.ID); err != nil {
			t.Fatalf("VoidExpense failed: %v", err)
		}
		expenses, err := store.ListExpenses(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		for _, e := range expenses {
			if e.ID == expense.ID {
				t.Error("voided expense still listed")
			}
		}

		if err := store.VoidExpense(ctx, group.ID, "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSettlementRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := models.RegisteredMember("user-alice", "Alice")
	bob := models.RegisteredMember("user-bob", "Bob")
	group := newTestGroup(t, store, alice, bob)

	settlement := &models.SettlementRecord{
		GroupID:   group.ID,
		From:      bob,
		To:        alice,
		Amount:    1500,
		Currency:  "USD",
		Status:    models.SettlementCompleted,
		CreatedBy: "user-bob",
		Note:      "venmo",
	}
	if err := store.CreateSettlement(ctx, settlement); err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}

	pending := &models.SettlementRecord{
		GroupID:   group.ID,
		From:      bob,
		To:        alice,
		Amount:    9900,
		Currency:  "USD",
		Status:    models.SettlementPending,
		CreatedBy: "user-bob",
	}
	if err := store.CreateSettlement(ctx, pending); err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}

	settlements, err := store.ListCompletedSettlements(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListCompletedSettlements failed: %v", err)
	}
	if len(settlements) != 1 {
		t.Fatalf("completed settlements = %d, want 1", len(settlements))
	}
	got := settlements[0]
	if got.From.Key() != "user-bob" || got.To.Key() != "user-alice" || got.Amount != 1500 {
		t.Errorf("unexpected settlement: %+v", got)
	}
	if got.Note != "venmo" {
		t.Errorf("note = %q, want venmo", got.Note)
	}

	version, err := store.LedgerVersion(ctx, group.ID)
	if err != nil {
		t.Fatalf("LedgerVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("ledger version after two writes = %d, want 2", version)
	}
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("Alice@Example.com", "Alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID = %s, want %s", byEmail.ID, user.ID)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("email = %s, want normalized alice@example.com", byID.Email)
	}

	if _, err := store.GetUserByID(ctx, "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRosterLookupFallback(t *testing.T) {
	r := &roster{byKey: map[string]models.Member{}}

	ghost := r.lookup("ghost@example.com")
	if ghost.Registered() {
		t.Error("email-shaped key resolved to a registered member")
	}
	if ghost.Key() != "ghost@example.com" {
		t.Errorf("key = %q, want %q", ghost.Key(), "ghost@example.com")
	}

	orphan := r.lookup("some-user-id")
	if !orphan.Registered() {
		t.Error("id-shaped key resolved to a placeholder")
	}
	if orphan.Key() != "some-user-id" {
		t.Errorf("key = %q, want %q", orphan.Key(), "some-user-id")
	}
}
