// Package stock owns the maximum purchasable quantity of a session and keeps
// it in step with the upstream inventory.
package stock

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
)

// DefaultFallbackCeiling is the ceiling for stock the catalog does not track
const DefaultFallbackCeiling = 25

// Source reports the live quantity of a variant. found is false when the
// variant is no longer listed, which leaves the ceiling untouched.
type Source interface {
	LatestQuantity(ctx context.Context, handle string, variantID int64) (qty int, found bool, err error)
}

// Guard holds the ceiling for one session. It never touches the draft
// quantity itself; callers clamp with Clamp after a refresh.
type Guard struct {
	mu        sync.Mutex
	handle    string
	variantID int64
	tracked   bool
	ceiling   int
	source    Source
	logger    *zap.Logger
}

// NewGuard derives the starting ceiling. With a resolved variant the ceiling
// is its tracked quantity (floored at 0), or fallback when untracked. Without
// one the listing's static MaxStock is used as a fixed tracked ceiling, or
// fallback when that is not positive.
func NewGuard(listing domain.Listing, variant *domain.Variant, fallback int, source Source, logger *zap.Logger) *Guard {
	if fallback < 1 {
		fallback = DefaultFallbackCeiling
	}
	g := &Guard{
		handle: listing.Handle,
		source: source,
		logger: logger,
	}

	switch {
	case variant != nil && variant.Tracked:
		g.variantID = variant.ID
		g.tracked = true
		g.ceiling = max(variant.InventoryQty, 0)
	case variant != nil:
		g.variantID = variant.ID
		g.ceiling = fallback
	case listing.MaxStock > 0:
		g.tracked = true
		g.ceiling = listing.MaxStock
	default:
		g.ceiling = fallback
	}
	return g
}

// Ceiling returns the current maximum purchasable quantity
func (g *Guard) Ceiling() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ceiling
}

// Tracked reports whether the ceiling is a real inventory count
func (g *Guard) Tracked() bool {
	return g.tracked
}

// InitialQuantity is 1 when anything can be bought, else 0 (sold out)
func (g *Guard) InitialQuantity() int {
	if g.Ceiling() > 0 {
		return 1
	}
	return 0
}

// Refresh asks the source for the latest quantity and replaces the ceiling.
// Untracked stock, or tracked stock without a variant to ask about, resolves
// immediately. On error the ceiling is left as it was.
func (g *Guard) Refresh(ctx context.Context) (int, error) {
	if !g.tracked || g.variantID == 0 || g.handle == "" || g.source == nil {
		return g.Ceiling(), nil
	}

	qty, found, err := g.source.LatestQuantity(ctx, g.handle, g.variantID)
	if err != nil {
		g.logger.Warn("Stock refresh failed",
			zap.String("handle", g.handle),
			zap.Int64("variant_id", g.variantID),
			zap.Error(err),
		)
		return g.Ceiling(), fmt.Errorf("failed to refresh stock: %w", err)
	}
	if !found {
		g.logger.Debug("Variant missing from refresh, keeping ceiling",
			zap.Int64("variant_id", g.variantID))
		return g.Ceiling(), nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.ceiling = max(qty, 0)
	return g.ceiling, nil
}

// Clamp lowers quantity to ceiling. It never raises it.
func Clamp(quantity, ceiling int) int {
	if quantity > ceiling {
		return ceiling
	}
	return quantity
}
