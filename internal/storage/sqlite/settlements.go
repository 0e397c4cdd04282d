package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ferrante/splitledger/internal/models"
)

// CreateSettlement persists a settlement and bumps the group's ledger
// version in the same transaction, so cached balances keyed on the old
// version can never be served once the write is durable.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.SettlementRecord) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Status == "" {
		settlement.Status = models.SettlementCompleted
	}

	var note any
	if settlement.Note != "" {
		note = settlement.Note
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_key, to_key, amount, currency, status, created_at, created_by, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.From.Key(), settlement.To.Key(),
		settlement.Amount, settlement.Currency, string(settlement.Status),
		settlement.CreatedAt, settlement.CreatedBy, note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := bumpLedgerVersion(ctx, tx, settlement.GroupID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListCompletedSettlements returns the group's completed settlements with
// members resolved against the roster.
func (s *SQLiteStore) ListCompletedSettlements(ctx context.Context, groupID string) ([]models.SettlementRecord, error) {
	roster, err := s.loadRoster(ctx, groupID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_key, to_key, amount, currency, status, created_at, created_by, note
		 FROM settlements WHERE group_id = ? AND status = ? ORDER BY created_at, id`,
		groupID, string(models.SettlementCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.SettlementRecord
	for rows.Next() {
		settlement := models.SettlementRecord{GroupID: groupID}
		var fromKey, toKey, status string
		var note sql.NullString
		if err := rows.Scan(&settlement.ID, &fromKey, &toKey, &settlement.Amount,
			&settlement.Currency, &status, &settlement.CreatedAt, &settlement.CreatedBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlement.From = roster.lookup(fromKey)
		settlement.To = roster.lookup(toKey)
		settlement.Status = models.SettlementStatus(status)
		if note.Valid {
			settlement.Note = note.String
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
