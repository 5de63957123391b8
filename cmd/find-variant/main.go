package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/config"
	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/pricing"
	"github.com/jafarshop/gopiorder/internal/service"
	"github.com/jafarshop/gopiorder/internal/shopify"
	"github.com/jafarshop/gopiorder/internal/stock"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/find-variant/main.go <product-handle> [variant-id]")
		fmt.Println("Example: go run cmd/find-variant/main.go a2-gir-cow-ghee 44012345678901")
		os.Exit(1)
	}

	handle := os.Args[1]
	hint := ""
	if len(os.Args) > 2 {
		hint = os.Args[2]
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	storefront := shopify.NewStorefront(cfg.Shopify, logger)
	catalog := service.NewCatalogService(storefront, logger)

	fmt.Printf("🔍 Looking up product: %s\n\n", handle)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Shopify.Timeout)
	defer cancel()

	variants, err := catalog.Variants(ctx, handle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load product: %v\n", err)
		os.Exit(1)
	}
	if len(variants) == 0 {
		fmt.Printf("❌ Product '%s' has no variants.\n", handle)
		os.Exit(1)
	}

	money := pricing.RupeeFormatter{}
	for _, v := range variants {
		fmt.Printf("  %d  %-24s %10s  tracked=%-5t qty=%-4d available=%t\n",
			v.ID, v.Title, money.FormatMoney(v.Price), v.Tracked, v.InventoryQty, v.Available)
	}

	resolved, _ := stock.ResolveVariant(hint, variants)
	guard := stock.NewGuard(domain.Listing{Handle: handle}, &resolved, cfg.Order.StockFallbackCeiling, nil, logger)
	price := pricing.Compute(resolved.Price, guard.InitialQuantity(), cfg.Order.CommissionRate)

	fmt.Printf("\n✅ Resolved variant: %d (%s)\n", resolved.ID, resolved.Title)
	if hint != "" && fmt.Sprint(resolved.ID) != hint {
		fmt.Printf("⚠️  Variant %s was not found, fell back to the first available one.\n", hint)
	}
	fmt.Printf("Stock ceiling: %d (tracked=%t)\n", guard.Ceiling(), guard.Tracked())
	fmt.Printf("Initial quantity: %d\n", guard.InitialQuantity())
	fmt.Printf("Commission (%s): %s of %s, net %s\n",
		cfg.Order.CommissionRate.Label(),
		money.FormatMoney(price.Commission),
		money.FormatMoney(price.Total),
		money.FormatMoney(price.NetPayable),
	)
}
