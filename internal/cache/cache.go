package cache

import (
	"context"
	"time"

	"kassapos/internal/domain"
)

// ItemCache sits in front of the inventory store on the item lookup
// path. A miss is not an error.
type ItemCache interface {
	Get(ctx context.Context, id string) (*domain.Item, bool, error)
	Set(ctx context.Context, id string, item *domain.Item, ttl time.Duration) error
	Invalidate(ctx context.Context, id string) error
}

type NoopItemCache struct{}

func (NoopItemCache) Get(_ context.Context, _ string) (*domain.Item, bool, error) {
	return nil, false, nil
}

func (NoopItemCache) Set(_ context.Context, _ string, _ *domain.Item, _ time.Duration) error {
	return nil
}

func (NoopItemCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
