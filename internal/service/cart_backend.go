package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/shopify"
)

// cartBackend submits an order by adding it to the shopper's storefront cart
// and handing off to checkout.
type cartBackend struct {
	cart   *shopify.Cart
	logger *zap.Logger
}

// NewCartBackend creates a backend bound to one cart session
func NewCartBackend(cart *shopify.Cart, logger *zap.Logger) *cartBackend {
	return &cartBackend{
		cart:   cart,
		logger: logger,
	}
}

func (b *cartBackend) Submit(ctx context.Context, req domain.OrderRequest) (*domain.Acceptance, error) {
	props := make(map[string]string, len(req.Properties))
	for _, p := range req.Properties {
		props[p.Key] = p.Value
	}

	resp, err := b.cart.Add(ctx, shopify.CartItemInput{
		ID:         req.VariantID,
		Quantity:   req.Quantity,
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	ref := ""
	if len(resp.Items) > 0 {
		ref = resp.Items[0].Key
	}
	return &domain.Acceptance{
		Reference:   ref,
		CheckoutURL: b.cart.CheckoutURL(),
		CartToken:   b.cart.Token(),
	}, nil
}

func (b *cartBackend) Annotate(ctx context.Context, note string) error {
	return b.cart.UpdateNote(ctx, note)
}
