package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/shopify"
)

// draftOrderBackend submits an order as an Admin API draft order. The
// shopper continues on the draft's invoice URL.
type draftOrderBackend struct {
	client *shopify.Client
	logger *zap.Logger
}

// NewDraftOrderBackend creates a backend that writes draft orders
func NewDraftOrderBackend(client *shopify.Client, logger *zap.Logger) *draftOrderBackend {
	return &draftOrderBackend{
		client: client,
		logger: logger,
	}
}

func (b *draftOrderBackend) Submit(ctx context.Context, req domain.OrderRequest) (*domain.Acceptance, error) {
	variantID := shopify.VariantGID(req.VariantID)

	attrs := make([]shopify.DraftOrderAttributeInput, 0, len(req.Properties))
	for _, p := range req.Properties {
		attrs = append(attrs, shopify.DraftOrderAttributeInput{Key: p.Key, Value: p.Value})
	}

	input := shopify.DraftOrderInput{
		LineItems: []shopify.DraftOrderLineItemInput{{
			VariantID:        &variantID,
			Quantity:         req.Quantity,
			CustomAttributes: attrs,
		}},
		ShippingAddress: shippingAddress(req.Customer),
		Tags: []string{
			fmt.Sprintf("listing:%s", req.Handle),
			fmt.Sprintf("session:%s", req.SessionID),
		},
	}
	if req.Note != "" {
		input.Note = &req.Note
	}
	if req.Customer.Phone != "" {
		phone := "+91" + req.Customer.Phone
		input.Phone = &phone
	}

	draft, err := b.client.CreateDraftOrder(ctx, input)
	if err != nil {
		return nil, err
	}

	b.logger.Info("Draft order created",
		zap.String("draft_order_id", draft.ID),
		zap.String("name", draft.Name),
	)

	return &domain.Acceptance{
		Reference:   draft.Name,
		CheckoutURL: draft.InvoiceURL,
	}, nil
}

// Annotate is a no-op: the note already travels inside the draft order input.
func (b *draftOrderBackend) Annotate(ctx context.Context, note string) error {
	return nil
}

func shippingAddress(c domain.CustomerFields) *shopify.DraftOrderAddressInput {
	addr := &shopify.DraftOrderAddressInput{
		Address1: c.Address1,
		City:     c.City,
		Zip:      c.PIN,
		Country:  "IN",
	}

	// Parse customer name (assume "FirstName LastName" or just "Name")
	nameParts := strings.Fields(c.Name)
	if len(nameParts) > 0 {
		addr.FirstName = nameParts[0]
		if len(nameParts) > 1 {
			lastName := strings.Join(nameParts[1:], " ")
			addr.LastName = &lastName
		}
	}
	if c.Address2 != "" {
		addr.Address2 = &c.Address2
	}
	if c.State != "" {
		addr.Province = &c.State
	}
	if c.Phone != "" {
		addr.Phone = &c.Phone
	}
	return addr
}
