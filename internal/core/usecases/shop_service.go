package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/questline/internal/core/domain"
	"github.com/samirrijal/questline/internal/core/ports"
	"github.com/samirrijal/questline/internal/pkg/metrics"
)

const shopListCacheKey = "shop:items:active"

// ShopService manages the reward catalog.
type ShopService struct {
	shop  ports.ShopRepository
	cache ports.CacheService
}

// NewShopService creates a new ShopService. cache may be nil.
func NewShopService(shop ports.ShopRepository, cache ports.CacheService) *ShopService {
	return &ShopService{shop: shop, cache: cache}
}

// ListActive returns active catalog items ordered by price, read-through
// cached for five minutes.
func (s *ShopService) ListActive(ctx context.Context) ([]domain.ShopItem, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, shopListCacheKey); err == nil {
			var items []domain.ShopItem
			if err := json.Unmarshal(data, &items); err == nil {
				metrics.CacheHits.WithLabelValues("shop_list").Inc()
				return items, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("shop_list").Inc()
	}

	items, err := s.shop.List(ctx, true)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			_ = s.cache.Set(ctx, shopListCacheKey, data, 300)
		}
	}

	return items, nil
}

// Get returns a single catalog item.
func (s *ShopService) Get(ctx context.Context, id string) (*domain.ShopItem, error) {
	return s.shop.Get(ctx, id)
}

// Create adds a catalog item and invalidates the listing cache.
func (s *ShopService) Create(ctx context.Context, item *domain.ShopItem) (string, error) {
	if err := validateItem(item); err != nil {
		return "", err
	}
	id, err := s.shop.Create(ctx, item)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx)
	return id, nil
}

// Update replaces a catalog item and invalidates the listing cache.
func (s *ShopService) Update(ctx context.Context, item *domain.ShopItem) error {
	if item.ID == "" {
		return fmt.Errorf("item id is required")
	}
	if err := validateItem(item); err != nil {
		return err
	}
	if err := s.shop.Update(ctx, item); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a catalog item and invalidates the listing cache.
func (s *ShopService) Delete(ctx context.Context, id string) error {
	if err := s.shop.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ShopService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, shopListCacheKey)
	}
}

func validateItem(item *domain.ShopItem) error {
	if item.Name == "" {
		return fmt.Errorf("item name is required")
	}
	if item.Price < 0 {
		return fmt.Errorf("item price must not be negative")
	}
	return nil
}
