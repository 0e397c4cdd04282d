// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/ferrante/splitledger/internal/models"
)

// ErrNotFound is returned when a group, member, expense, or user does not
// exist. Implementations wrap it with detail; callers match with errors.Is.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations the services depend on. The
// balance engine itself never touches a Store; it only sees the immutable
// snapshots read through one. The abstraction allows swapping storage
// backends (SQLite, PostgreSQL, etc.) without changing the service layer.
type Store interface {
	// CreateGroup persists a new group and its initial roster. The group's
	// ID and CreatedAt are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its full member roster.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddGroupMembers adds members to an existing roster, skipping any
	// whose key is already present.
	AddGroupMembers(ctx context.Context, groupID string, members []models.Member) error

	// ResolveMember maps a user ID, member key, or email address to the
	// group's canonical Member for that person.
	ResolveMember(ctx context.Context, groupID, ref string) (models.Member, error)

	// ListExpenses returns the group's non-voided expenses in any order.
	ListExpenses(ctx context.Context, groupID string) ([]models.ExpenseRecord, error)

	// ListCompletedSettlements returns the group's completed settlements.
	ListCompletedSettlements(ctx context.Context, groupID string) ([]models.SettlementRecord, error)

	// LedgerVersion returns the group's current ledger version. The version
	// increments atomically with every expense or settlement write, so a
	// (groupID, version) pair uniquely identifies a ledger snapshot.
	LedgerVersion(ctx context.Context, groupID string) (int64, error)

	// CreateExpense persists an expense and bumps the ledger version in the
	// same transaction.
	CreateExpense(ctx context.Context, expense *models.ExpenseRecord) error

	// VoidExpense soft-deletes an expense and bumps the ledger version.
	VoidExpense(ctx context.Context, groupID, expenseID string) error

	// CreateSettlement persists a settlement and bumps the ledger version.
	CreateSettlement(ctx context.Context, settlement *models.SettlementRecord) error

	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by normalized email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
