// Package service exposes the balance engine and its boundary operations to
// the API layer: cached balance reads, what-if projections, and validated
// ledger writes. Errors carry connect codes (see errors.go).
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ferrante/splitledger/internal/calculator"
	"github.com/ferrante/splitledger/internal/models"
	"github.com/ferrante/splitledger/internal/storage"
)

var balanceComputations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "splitledger_balance_computations_total",
		Help: "Balance engine runs by result source.",
	},
	[]string{"kind", "source"},
)

const (
	kindBalances    = "balances"
	kindDebts       = "debts"
	kindSuggestions = "suggestions"
)

// LedgerService serves the read side of the engine: net balances, the
// detailed debt graph, settlement suggestions, and what-if projections.
// All methods are safe for concurrent use; they share no mutable state
// beyond the version-keyed cache.
type LedgerService struct {
	store storage.Store
	cache *Cache
}

// NewLedgerService creates a LedgerService. cache may be nil to disable
// caching (every call recomputes).
func NewLedgerService(store storage.Store, cache *Cache) *LedgerService {
	return &LedgerService{store: store, cache: cache}
}

// snapshot is one immutable read of a group's ledger.
type snapshot struct {
	group       *models.Group
	expenses    []models.ExpenseRecord
	settlements []models.SettlementRecord
	version     int64
}

func (s *LedgerService) snapshot(ctx context.Context, groupID string) (*snapshot, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListCompletedSettlements(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &snapshot{
		group:       group,
		expenses:    expenses,
		settlements: settlements,
		version:     group.LedgerVersion,
	}, nil
}

// cached runs compute for the (kind, group, version) triple unless a cached
// value already exists.
func (s *LedgerService) cached(ctx context.Context, kind, groupID string, compute func(*snapshot) (any, error)) (any, error) {
	if s.cache != nil {
		version, err := s.store.LedgerVersion(ctx, groupID)
		if err != nil {
			return nil, wrapError(err)
		}
		if value, ok := s.cache.Get(kind, groupID, version); ok {
			balanceComputations.WithLabelValues(kind, "cache").Inc()
			return value, nil
		}
	}

	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, wrapError(err)
	}
	value, err := compute(snap)
	if err != nil {
		return nil, wrapError(err)
	}
	balanceComputations.WithLabelValues(kind, "computed").Inc()
	if s.cache != nil {
		s.cache.Set(kind, groupID, snap.version, value)
	}
	return value, nil
}

// Balances returns each member's net balance for the group.
func (s *LedgerService) Balances(ctx context.Context, groupID string) ([]models.NetBalance, error) {
	value, err := s.cached(ctx, kindBalances, groupID, func(snap *snapshot) (any, error) {
		balances, err := calculator.ComputeBalances(snap.group.Currency, snap.expenses, snap.settlements)
		if err != nil {
			return nil, err
		}
		return balances.List(), nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.NetBalance), nil
}

// DetailedDebts returns the full pairwise debt graph for "who owes whom in
// detail" views.
func (s *LedgerService) DetailedDebts(ctx context.Context, groupID string) ([]models.DebtEdge, error) {
	value, err := s.cached(ctx, kindDebts, groupID, func(snap *snapshot) (any, error) {
		return calculator.BuildDebtGraph(snap.group.Currency, snap.expenses, snap.settlements)
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.DebtEdge), nil
}

// Suggestions returns the simplified settlement plan: the smallest set of
// transactions the greedy matcher finds that clears every balance.
func (s *LedgerService) Suggestions(ctx context.Context, groupID string) ([]models.DebtEdge, error) {
	value, err := s.cached(ctx, kindSuggestions, groupID, func(snap *snapshot) (any, error) {
		balances, err := calculator.ComputeBalances(snap.group.Currency, snap.expenses, snap.settlements)
		if err != nil {
			return nil, err
		}
		return calculator.Simplify(balances)
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.DebtEdge), nil
}

// WhatIfExpense projects balances and suggestions as if the hypothetical
// expense were logged. Nothing is persisted or cached; the projection cannot
// be observed by any other call.
func (s *LedgerService) WhatIfExpense(ctx context.Context, groupID string, input ExpenseInput) (*models.Projection, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, wrapError(err)
	}
	expense, err := buildExpense(ctx, s.store, snap.group, input)
	if err != nil {
		return nil, wrapError(err)
	}

	projection, err := calculator.ProjectExpense(snap.group.Currency, snap.expenses, snap.settlements, *expense)
	if err != nil {
		return nil, wrapError(err)
	}
	slog.Debug("what-if expense projected", "group_id", groupID, "amount", expense.Amount)
	return projection, nil
}

// WhatIfSettlement projects balances and suggestions as if the hypothetical
// settlement were completed.
func (s *LedgerService) WhatIfSettlement(ctx context.Context, groupID string, input SettlementInput) (*models.Projection, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, wrapError(err)
	}
	settlement, err := buildSettlement(ctx, s.store, snap.group, input, "")
	if err != nil {
		return nil, wrapError(err)
	}

	projection, err := calculator.ProjectSettlement(snap.group.Currency, snap.expenses, snap.settlements, *settlement)
	if err != nil {
		return nil, wrapError(err)
	}
	slog.Debug("what-if settlement projected", "group_id", groupID, "amount", settlement.Amount)
	return projection, nil
}

// resolveMember maps a caller-supplied reference to a roster member,
// classifying an unknown reference as a validation error rather than a
// not-found, since the group itself exists.
func resolveMember(ctx context.Context, store storage.Store, groupID, ref string) (models.Member, error) {
	member, err := store.ResolveMember(ctx, groupID, ref)
	if err != nil {
		return models.Member{}, fmt.Errorf("%q: %w", ref, ErrNotGroupMember)
	}
	return member, nil
}
