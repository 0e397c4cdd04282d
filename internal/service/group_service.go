package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/ferrante/splitledger/internal/models"
	"github.com/ferrante/splitledger/internal/storage"
)

// MemberInput describes one roster entry: either a registered user ID or an
// email placeholder for someone not signed up yet.
type MemberInput struct {
	UserID      string
	Email       string
	DisplayName string
}

// GroupService handles group lifecycle and expense writes. It owns cache
// invalidation for the writes it performs.
type GroupService struct {
	store storage.Store
	cache *Cache
}

// NewGroupService creates a GroupService.
func NewGroupService(store storage.Store, cache *Cache) *GroupService {
	return &GroupService{store: store, cache: cache}
}

// CreateGroup creates a group with its initial roster. Each MemberInput must
// carry a user ID or an email.
func (s *GroupService) CreateGroup(ctx context.Context, name, currency string, members []MemberInput) (*models.Group, error) {
	if name == "" || currency == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group name and currency are required"))
	}
	roster, err := buildRoster(ctx, s.store, members)
	if err != nil {
		return nil, wrapError(err)
	}

	group := &models.Group{Name: name, Currency: currency, Members: roster}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, wrapError(err)
	}
	slog.Info("group created", "group_id", group.ID, "members", len(group.Members))
	return group, nil
}

// GetGroup retrieves a group with its roster.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, wrapError(err)
	}
	return group, nil
}

// AddMembers extends the roster; members already present are skipped.
func (s *GroupService) AddMembers(ctx context.Context, groupID string, members []MemberInput) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, wrapError(err)
	}
	roster, err := buildRoster(ctx, s.store, members)
	if err != nil {
		return nil, wrapError(err)
	}

	added := roster[:0]
	for _, member := range roster {
		if !group.HasMember(member.Key()) {
			added = append(added, member)
		}
	}
	if len(added) == 0 {
		return group, nil
	}
	if err := s.store.AddGroupMembers(ctx, groupID, added); err != nil {
		return nil, wrapError(err)
	}
	return s.GetGroup(ctx, groupID)
}

// AddExpense validates and persists an expense, then invalidates the group's
// cached balances.
func (s *GroupService) AddExpense(ctx context.Context, groupID string, input ExpenseInput) (*models.ExpenseRecord, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, wrapError(err)
	}
	expense, err := buildExpense(ctx, s.store, group, input)
	if err != nil {
		return nil, wrapError(err)
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, wrapError(err)
	}
	s.cache.InvalidateGroup(groupID)
	slog.Info("expense added", "group_id", groupID, "expense_id", expense.ID, "amount", expense.Amount)
	return expense, nil
}

// VoidExpense soft-deletes an expense and invalidates the group's cache.
func (s *GroupService) VoidExpense(ctx context.Context, groupID, expenseID string) error {
	if err := s.store.VoidExpense(ctx, groupID, expenseID); err != nil {
		return wrapError(err)
	}
	s.cache.InvalidateGroup(groupID)
	slog.Info("expense voided", "group_id", groupID, "expense_id", expenseID)
	return nil
}

// buildRoster converts member inputs to Members, resolving registered ones
// through the user table so display names stay consistent. Inputs naming the
// same person more than once (by id or email) collapse to one entry, keeping
// the first occurrence.
func buildRoster(ctx context.Context, store storage.Store, members []MemberInput) ([]models.Member, error) {
	roster := make([]models.Member, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		var member models.Member
		switch {
		case m.UserID != "":
			user, err := store.GetUserByID(ctx, m.UserID)
			if err != nil {
				return nil, err
			}
			member = user.Member()
		case m.Email != "":
			name := m.DisplayName
			if name == "" {
				name = m.Email
			}
			member = models.UnregisteredMember(m.Email, name)
		default:
			return nil, connect.NewError(connect.CodeInvalidArgument,
				fmt.Errorf("member needs a user id or an email"))
		}

		if _, ok := seen[member.Key()]; ok {
			continue
		}
		seen[member.Key()] = struct{}{}
		roster = append(roster, member)
	}
	return roster, nil
}
