package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ferrante/splitledger/internal/models"
	"github.com/ferrante/splitledger/internal/storage"
)

// CreateExpense persists an expense and its beneficiary rows, bumping the
// group's ledger version in the same transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.ExpenseRecord) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, currency, payer_key, created_at, voided)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount,
		expense.Currency, expense.Payer.Key(), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, beneficiary := range expense.Beneficiaries {
		var share any
		if expense.Shares != nil {
			share = expense.Shares[i]
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_beneficiaries (expense_id, member_key, share) VALUES (?, ?, ?)",
			expense.ID, beneficiary.Key(), share,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense beneficiary: %w", err)
		}
	}

	if err := bumpLedgerVersion(ctx, tx, expense.GroupID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// VoidExpense soft-deletes an expense so it no longer contributes to
// balances, bumping the ledger version.
func (s *SQLiteStore) VoidExpense(ctx context.Context, groupID, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET voided = 1 WHERE id = ? AND group_id = ?",
		expenseID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to void expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to void expense: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	if err := bumpLedgerVersion(ctx, tx, groupID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpenses returns the group's non-voided expenses with beneficiaries
// resolved against the roster. Beneficiaries come back in member-key order;
// explicit shares keep their alignment.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]models.ExpenseRecord, error) {
	roster, err := s.loadRoster(ctx, groupID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount, currency, payer_key, created_at
		 FROM expenses WHERE group_id = ? AND voided = 0 ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.ExpenseRecord
	for rows.Next() {
		expense := models.ExpenseRecord{GroupID: groupID}
		var payerKey string
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.Amount,
			&expense.Currency, &payerKey, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.Payer = roster.lookup(payerKey)
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := s.loadBeneficiaries(ctx, &expenses[i], roster); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (s *SQLiteStore) loadBeneficiaries(ctx context.Context, expense *models.ExpenseRecord, roster *roster) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_key, share FROM expense_beneficiaries
		 WHERE expense_id = ? ORDER BY member_key`,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense beneficiaries: %w", err)
	}
	defer rows.Close()

	var shares []int64
	explicit := false
	for rows.Next() {
		var key string
		var share sql.NullInt64
		if err := rows.Scan(&key, &share); err != nil {
			return fmt.Errorf("failed to scan expense beneficiary: %w", err)
		}
		expense.Beneficiaries = append(expense.Beneficiaries, roster.lookup(key))
		shares = append(shares, share.Int64)
		if share.Valid {
			explicit = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense beneficiaries: %w", err)
	}

	if explicit {
		expense.Shares = shares
	}
	return nil
}
