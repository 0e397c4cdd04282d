// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/ferrante/splitledger/internal/models"
	"github.com/ferrante/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateGroup persists a new group and its initial roster.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, currency, ledger_version, created_at) VALUES (?, ?, ?, 0, ?)",
		group.ID, group.Name, group.Currency, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for _, member := range group.Members {
		if err := insertMember(ctx, tx, group.ID, member); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group with its full member roster.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, ledger_version, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &group.LedgerVersion, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	roster, err := s.loadRoster(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, member := range roster.ordered {
		group.Members = append(group.Members, member)
	}
	return group, nil
}

// AddGroupMembers adds members to an existing roster, skipping duplicates.
func (s *SQLiteStore) AddGroupMembers(ctx context.Context, groupID string, members []models.Member) error {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, member := range members {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM group_members WHERE group_id = ? AND member_key = ?",
			groupID, member.Key(),
		).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check member existence: %w", err)
		}
		if err := insertMember(ctx, tx, groupID, member); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ResolveMember maps a user ID, member key, or email to the group's canonical
// Member for that person.
func (s *SQLiteStore) ResolveMember(ctx context.Context, groupID, ref string) (models.Member, error) {
	var userID, email sql.NullString
	var displayName string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, display_name FROM group_members
		 WHERE group_id = ? AND (member_key = ? OR user_id = ? OR email = ?)`,
		groupID, ref, ref, models.NormalizeEmail(ref),
	).Scan(&userID, &email, &displayName)
	if err == sql.ErrNoRows {
		return models.Member{}, fmt.Errorf("member %s in group %s: %w", ref, groupID, storage.ErrNotFound)
	}
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to resolve member: %w", err)
	}
	return memberFromRow(userID, email, displayName), nil
}

// LedgerVersion returns the group's current ledger version.
func (s *SQLiteStore) LedgerVersion(ctx context.Context, groupID string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT ledger_version FROM groups WHERE id = ?", groupID,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get ledger version: %w", err)
	}
	return version, nil
}

// roster caches a group's members keyed by member key, preserving the
// stored order for deterministic roster listings.
type roster struct {
	byKey   map[string]models.Member
	ordered []models.Member
}

func (r *roster) lookup(key string) models.Member {
	if member, ok := r.byKey[key]; ok {
		return member
	}
	// A key with no roster row (e.g. a member removed out-of-band) still
	// yields a usable identity rather than an empty Member. Email-shaped
	// keys stay placeholders so they keep resolving to the same person.
	if strings.Contains(key, "@") {
		return models.UnregisteredMember(key, key)
	}
	return models.RegisteredMember(key, key)
}

func (s *SQLiteStore) loadRoster(ctx context.Context, groupID string) (*roster, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, email, display_name FROM group_members
		 WHERE group_id = ? ORDER BY member_key`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	r := &roster{byKey: make(map[string]models.Member)}
	for rows.Next() {
		var userID, email sql.NullString
		var displayName string
		if err := rows.Scan(&userID, &email, &displayName); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		member := memberFromRow(userID, email, displayName)
		r.byKey[member.Key()] = member
		r.ordered = append(r.ordered, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return r, nil
}

func memberFromRow(userID, email sql.NullString, displayName string) models.Member {
	if userID.Valid && userID.String != "" {
		return models.RegisteredMember(userID.String, displayName)
	}
	return models.UnregisteredMember(email.String, displayName)
}

func insertMember(ctx context.Context, tx *sql.Tx, groupID string, member models.Member) error {
	var userID, email any
	if member.Registered() {
		userID = member.UserID
	} else {
		email = models.NormalizeEmail(member.Email)
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, member_key, user_id, email, display_name) VALUES (?, ?, ?, ?, ?)",
		groupID, member.Key(), userID, email, member.DisplayName,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group member: %w", err)
	}
	return nil
}

// bumpLedgerVersion increments the group's ledger version inside the given
// transaction, so the bump is durable exactly when the ledger write is.
func bumpLedgerVersion(ctx context.Context, tx *sql.Tx, groupID string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE groups SET ledger_version = ledger_version + 1 WHERE id = ?", groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to bump ledger version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to bump ledger version: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}
