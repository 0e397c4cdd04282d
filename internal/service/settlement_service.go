package service

import (
	"context"
	"log/slog"

	"github.com/ferrante/splitledger/internal/models"
	"github.com/ferrante/splitledger/internal/storage"
)

// SettlementService records real settlements. It is the only component in
// the core with a side effect: the commit, followed by cache invalidation
// strictly after the write is durable.
type SettlementService struct {
	store storage.Store
	cache *Cache
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, cache *Cache) *SettlementService {
	return &SettlementService{store: store, cache: cache}
}

// Record validates and commits a settlement, then invalidates the group's
// cached balances so the committing caller reads their own write. Settling
// more than is owed is accepted; the pair's balance simply flips direction.
func (s *SettlementService) Record(ctx context.Context, groupID string, input SettlementInput, createdBy string) (*models.SettlementRecord, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, wrapError(err)
	}
	settlement, err := buildSettlement(ctx, s.store, group, input, createdBy)
	if err != nil {
		return nil, wrapError(err)
	}

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, wrapError(err)
	}
	// Invalidation only after the commit succeeded: a failed write must not
	// evict entries that are still correct.
	s.cache.InvalidateGroup(groupID)

	slog.Info("settlement recorded",
		"group_id", groupID,
		"settlement_id", settlement.ID,
		"from", settlement.From.Key(),
		"to", settlement.To.Key(),
		"amount", settlement.Amount,
	)
	return settlement, nil
}
