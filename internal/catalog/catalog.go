// Package catalog fronts the item inventory. Lookups go through the
// item cache before hitting the store, and settled sales decrement the
// stock counts of the items they contain.
package catalog

import (
	"context"
	"errors"
	"log"
	"time"

	"kassapos/internal/cache"
	"kassapos/internal/domain"
	"kassapos/internal/store"
)

type Registry struct {
	repo     store.Repository
	items    cache.ItemCache
	cacheTTL time.Duration
}

func NewRegistry(repo store.Repository, items cache.ItemCache, cacheTTL time.Duration) *Registry {
	if items == nil {
		items = cache.NoopItemCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Registry{repo: repo, items: items, cacheTTL: cacheTTL}
}

// FindItemByID returns store.ErrNotFound for an unknown identifier.
// Cache failures degrade to a store lookup instead of failing the scan.
func (r *Registry) FindItemByID(ctx context.Context, id string) (*domain.Item, error) {
	if cached, ok, err := r.items.Get(ctx, id); err != nil {
		log.Printf("[catalog] item cache get failed for %s: %v", id, err)
	} else if ok {
		return cached, nil
	}

	item, err := r.repo.FindItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.items.Set(ctx, id, item, r.cacheTTL); err != nil {
		log.Printf("[catalog] item cache set failed for %s: %v", id, err)
	}
	return item, nil
}

func (r *Registry) ListItems(ctx context.Context) ([]domain.Item, error) {
	return r.repo.ListItems(ctx)
}

// UpdateInventory decrements stock for every line of a settled sale.
// Lines for items the store no longer knows are skipped, and stock
// never goes below zero.
func (r *Registry) UpdateInventory(ctx context.Context, settled domain.SettledSale) {
	for _, line := range settled.Lines {
		item, err := r.repo.FindItemByID(ctx, line.ItemID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("[catalog] inventory lookup failed for %s: %v", line.ItemID, err)
			}
			continue
		}

		remaining := item.Quantity - line.Quantity
		if remaining < 0 {
			remaining = 0
		}
		if err := r.repo.SetItemQuantity(ctx, line.ItemID, remaining); err != nil {
			log.Printf("[catalog] inventory update failed for %s: %v", line.ItemID, err)
			continue
		}
		if err := r.items.Invalidate(ctx, line.ItemID); err != nil {
			log.Printf("[catalog] item cache invalidate failed for %s: %v", line.ItemID, err)
		}

		log.Printf("[catalog] sale %s: decreased inventory of item %s by %d, %d remaining",
			settled.ID, line.ItemID, line.Quantity, remaining)
	}
}
