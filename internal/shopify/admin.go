package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// VariantGID builds the Admin API global id of a product variant
func VariantGID(variantID int64) string {
	return fmt.Sprintf("gid://shopify/ProductVariant/%d", variantID)
}

// CreateDraftOrder creates a draft order and returns it with its invoice URL
func (c *Client) CreateDraftOrder(ctx context.Context, input DraftOrderInput) (*DraftOrder, error) {
	resp, err := c.Execute(ctx, DraftOrderCreateMutation, map[string]interface{}{
		"input": input,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create draft order: %w", err)
	}

	var result struct {
		DraftOrderCreate struct {
			DraftOrder *DraftOrder `json:"draftOrder"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"draftOrderCreate"`
	}

	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse draft order response: %w", err)
	}

	// userErrors mean Shopify refused the input, the same class as a storefront 422.
	if errs := result.DraftOrderCreate.UserErrors; len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Message)
		}
		return nil, &APIError{Status: http.StatusUnprocessableEntity, Message: strings.Join(msgs, "; ")}
	}

	if result.DraftOrderCreate.DraftOrder == nil {
		return nil, fmt.Errorf("draft order missing from response")
	}

	c.logger.Debug("Draft order created")
	return result.DraftOrderCreate.DraftOrder, nil
}

// VariantInventory returns the live quantity of a variant and whether Shopify
// tracks it. found is false when the variant no longer exists.
func (c *Client) VariantInventory(ctx context.Context, variantID int64) (qty int, tracked bool, found bool, err error) {
	resp, err := c.Execute(ctx, VariantInventoryQuery, map[string]interface{}{
		"id": VariantGID(variantID),
	})
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to query variant inventory: %w", err)
	}

	var result struct {
		ProductVariant *struct {
			InventoryQuantity int `json:"inventoryQuantity"`
			InventoryItem     struct {
				Tracked bool `json:"tracked"`
			} `json:"inventoryItem"`
		} `json:"productVariant"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return 0, false, false, fmt.Errorf("failed to parse variant inventory: %w", err)
	}
	if result.ProductVariant == nil {
		return 0, false, false, nil
	}
	return result.ProductVariant.InventoryQuantity, result.ProductVariant.InventoryItem.Tracked, true, nil
}
