package services

import (
	"context"
	"errors"

	"movierama/internal/cache"
	"movierama/internal/models"

	"go.uber.org/zap"
)

// Invalidator drops the cached regions a committed write can affect. It must
// only be called after the transaction has committed.
//
// Invalidation is coarse: a write drops every page of AllItems and of the
// owner's listing, regardless of which pages actually contained the item.
type Invalidator struct {
	pages    cache.Cache[models.RankedPage]
	profiles cache.Cache[models.Profile]
	log      *zap.Logger
}

func NewInvalidator(pages cache.Cache[models.RankedPage], profiles cache.Cache[models.Profile], log *zap.Logger) *Invalidator {
	return &Invalidator{pages: pages, profiles: profiles, log: log}
}

// InvalidateOwner drops AllItems, ByOwner:<owner> and Profile:<owner>.
func (i *Invalidator) InvalidateOwner(ctx context.Context, ownerID uint) error {
	return errors.Join(
		i.pages.InvalidateRegion(ctx, cache.RegionAllItems()),
		i.pages.InvalidateRegion(ctx, cache.RegionByOwner(ownerID)),
		i.profiles.InvalidateRegion(ctx, cache.RegionProfile(ownerID)),
	)
}

// NotifyItemCreated is the post-commit hook of item creation. Failures are
// logged; the item already exists.
func (i *Invalidator) NotifyItemCreated(ctx context.Context, itemID, ownerID uint) {
	if err := i.InvalidateOwner(ctx, ownerID); err != nil {
		i.log.Warn("invalidate after item created",
			zap.Uint("item_id", itemID), zap.Uint("owner_id", ownerID), zap.Error(err))
	}
}

// NotifyVoteCast is the post-commit hook of the vote ledger.
func (i *Invalidator) NotifyVoteCast(ctx context.Context, itemID, ownerID uint) {
	if err := i.InvalidateOwner(ctx, ownerID); err != nil {
		i.log.Warn("invalidate after vote",
			zap.Uint("item_id", itemID), zap.Uint("owner_id", ownerID), zap.Error(err))
	}
}
