package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/shopify"
)

type catalogService struct {
	storefront *shopify.Storefront
	logger     *zap.Logger
}

// NewCatalogService creates a service that reads listing variants from the storefront
func NewCatalogService(storefront *shopify.Storefront, logger *zap.Logger) *catalogService {
	return &catalogService{
		storefront: storefront,
		logger:     logger,
	}
}

// Variants returns the variants of a product handle as domain snapshots
func (s *catalogService) Variants(ctx context.Context, handle string) ([]domain.Variant, error) {
	product, err := s.storefront.Product(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %q: %w", handle, err)
	}
	return VariantsFromProduct(product), nil
}

// LatestQuantity re-reads the product and returns the variant's inventory
func (s *catalogService) LatestQuantity(ctx context.Context, handle string, variantID int64) (int, bool, error) {
	product, err := s.storefront.Product(ctx, handle)
	if err != nil {
		return 0, false, err
	}
	for _, v := range product.Variants {
		if v.ID == variantID {
			return v.InventoryQuantity, true, nil
		}
	}
	return 0, false, nil
}

// VariantsFromProduct converts storefront variants. A variant is tracked when
// Shopify reports an inventory_management value.
func VariantsFromProduct(p *shopify.Product) []domain.Variant {
	if p == nil {
		return nil
	}
	variants := make([]domain.Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, domain.Variant{
			ID:           v.ID,
			Title:        v.Title,
			Price:        v.Price,
			Tracked:      v.InventoryManagement != nil && *v.InventoryManagement != "",
			InventoryQty: max(v.InventoryQuantity, 0),
			Available:    v.Available,
		})
	}
	return variants
}

type adminInventory struct {
	client *shopify.Client
	logger *zap.Logger
}

// NewAdminInventory reads live stock through the Admin API instead of the
// public product JSON.
func NewAdminInventory(client *shopify.Client, logger *zap.Logger) *adminInventory {
	return &adminInventory{
		client: client,
		logger: logger,
	}
}

func (s *adminInventory) LatestQuantity(ctx context.Context, handle string, variantID int64) (int, bool, error) {
	qty, tracked, found, err := s.client.VariantInventory(ctx, variantID)
	if err != nil || !found {
		return 0, found, err
	}
	if !tracked {
		s.logger.Debug("Variant no longer tracked upstream", zap.Int64("variant_id", variantID))
	}
	return qty, true, nil
}
