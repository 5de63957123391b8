package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
)

type fakeSource struct {
	qty   int
	found bool
	err   error
	calls int
}

func (f *fakeSource) LatestQuantity(ctx context.Context, handle string, variantID int64) (int, bool, error) {
	f.calls++
	return f.qty, f.found, f.err
}

func TestResolveVariant(t *testing.T) {
	variants := []domain.Variant{
		{ID: 1, Available: false},
		{ID: 2, Available: true},
		{ID: 3, Available: true},
	}

	tests := []struct {
		name     string
		hint     string
		variants []domain.Variant
		wantID   int64
		wantOK   bool
	}{
		{name: "hint matches", hint: "3", variants: variants, wantID: 3, wantOK: true},
		{name: "hint misses falls to first available", hint: "99", variants: variants, wantID: 2, wantOK: true},
		{name: "no hint", variants: variants, wantID: 2, wantOK: true},
		{name: "none available picks first", variants: []domain.Variant{{ID: 7}, {ID: 8}}, wantID: 7, wantOK: true},
		{name: "empty list", variants: nil, wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := ResolveVariant(tc.hint, tc.variants)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, v.ID)
		})
	}
}

func TestNewGuardCeilings(t *testing.T) {
	listing := domain.Listing{Handle: "a2-ghee"}

	tests := []struct {
		name    string
		listing domain.Listing
		variant *domain.Variant
		ceiling int
		tracked bool
		initial int
	}{
		{name: "tracked", listing: listing, variant: &domain.Variant{ID: 1, Tracked: true, InventoryQty: 10}, ceiling: 10, tracked: true, initial: 1},
		{name: "tracked sold out", listing: listing, variant: &domain.Variant{ID: 1, Tracked: true, InventoryQty: -2}, ceiling: 0, tracked: true, initial: 0},
		{name: "untracked uses fallback", listing: listing, variant: &domain.Variant{ID: 1, InventoryQty: 0}, ceiling: 25, initial: 1},
		{name: "no variant uses listing stock", listing: domain.Listing{MaxStock: 4}, ceiling: 4, tracked: true, initial: 1},
		{name: "no variant no stock uses fallback", listing: domain.Listing{}, ceiling: 25, initial: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGuard(tc.listing, tc.variant, DefaultFallbackCeiling, nil, zap.NewNop())
			assert.Equal(t, tc.ceiling, g.Ceiling())
			assert.Equal(t, tc.tracked, g.Tracked())
			assert.Equal(t, tc.initial, g.InitialQuantity())
		})
	}
}

func TestRefresh(t *testing.T) {
	variant := &domain.Variant{ID: 11, Tracked: true, InventoryQty: 10}
	listing := domain.Listing{Handle: "a2-ghee"}

	t.Run("replaces ceiling", func(t *testing.T) {
		src := &fakeSource{qty: 2, found: true}
		g := NewGuard(listing, variant, 25, src, zap.NewNop())
		ceiling, err := g.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, ceiling)
		assert.Equal(t, 2, g.Ceiling())
		assert.Equal(t, 2, Clamp(5, ceiling))
	})

	t.Run("negative upstream floors at zero", func(t *testing.T) {
		g := NewGuard(listing, variant, 25, &fakeSource{qty: -4, found: true}, zap.NewNop())
		ceiling, err := g.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, ceiling)
	})

	t.Run("failure keeps stale ceiling", func(t *testing.T) {
		g := NewGuard(listing, variant, 25, &fakeSource{err: errors.New("boom")}, zap.NewNop())
		ceiling, err := g.Refresh(context.Background())
		assert.Error(t, err)
		assert.Equal(t, 10, ceiling)
	})

	t.Run("missing variant keeps ceiling", func(t *testing.T) {
		g := NewGuard(listing, variant, 25, &fakeSource{found: false}, zap.NewNop())
		ceiling, err := g.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 10, ceiling)
	})

	t.Run("untracked is a no-op", func(t *testing.T) {
		src := &fakeSource{qty: 1, found: true}
		g := NewGuard(listing, &domain.Variant{ID: 11}, 25, src, zap.NewNop())
		ceiling, err := g.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 25, ceiling)
		assert.Zero(t, src.calls)
	})
}

func TestClampNeverRaises(t *testing.T) {
	assert.Equal(t, 3, Clamp(3, 10))
	assert.Equal(t, 2, Clamp(5, 2))
	assert.Equal(t, 0, Clamp(1, 0))
}
