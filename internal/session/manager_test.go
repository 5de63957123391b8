package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/flow"
	"github.com/jafarshop/gopiorder/internal/pricing"
	"github.com/jafarshop/gopiorder/internal/region"
	apperrors "github.com/jafarshop/gopiorder/pkg/errors"
)

type fakeCatalog struct {
	variants []domain.Variant
	err      error
}

func (f fakeCatalog) Variants(ctx context.Context, handle string) ([]domain.Variant, error) {
	return f.variants, f.err
}

type nopBackend struct{}

func (nopBackend) Submit(ctx context.Context, req domain.OrderRequest) (*domain.Acceptance, error) {
	return &domain.Acceptance{}, nil
}

func (nopBackend) Annotate(ctx context.Context, note string) error { return nil }

type countTracker struct {
	mu   sync.Mutex
	last int
}

func (c *countTracker) SessionsOpen(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = n
}

func newManager(catalog Catalog, tracker Tracker) *Manager {
	return NewManager(Config{
		Catalog:    catalog,
		NewBackend: func() flow.Backend { return nopBackend{} },
		Tracker:    tracker,
		Options: flow.Options{
			Rate:    pricing.ParseRatePercent(""),
			Profile: region.NewProfile(nil, nil, nil, nil),
			Labels:  flow.DefaultLabels(),
		},
		FallbackCeiling: 25,
		TTL:             time.Minute,
	})
}

func TestMountResolvesVariant(t *testing.T) {
	catalog := fakeCatalog{variants: []domain.Variant{
		{ID: 1, Price: 50000, Tracked: true, InventoryQty: 0},
		{ID: 2, Price: 90000, Tracked: true, InventoryQty: 4, Available: true},
	}}
	tracker := &countTracker{}
	m := newManager(catalog, tracker)

	ctrl, err := m.Mount(context.Background(), domain.Listing{Handle: "gir-ghee"})
	require.NoError(t, err)

	s := ctrl.Snapshot()
	assert.Equal(t, int64(2), s.VariantID)
	assert.Equal(t, 4, s.Ceiling)
	assert.Equal(t, int64(90000), s.Pricing.UnitPrice)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, tracker.last)

	got, err := m.Get(ctrl.ID())
	require.NoError(t, err)
	assert.Same(t, ctrl, got)
}

func TestMountFallsBackToListingMetadata(t *testing.T) {
	m := newManager(fakeCatalog{err: errors.New("storefront down")}, nil)

	ctrl, err := m.Mount(context.Background(), domain.Listing{
		Handle:      "gir-ghee",
		VariantHint: "77",
		UnitPrice:   120000,
		MaxStock:    6,
	})
	require.NoError(t, err)

	s := ctrl.Snapshot()
	assert.Equal(t, int64(77), s.VariantID)
	assert.Equal(t, int64(120000), s.Pricing.UnitPrice)
	assert.Equal(t, 6, s.Ceiling)
	assert.True(t, s.Tracked)
}

func TestMountWithoutAnyVariant(t *testing.T) {
	m := newManager(fakeCatalog{}, nil)
	_, err := m.Mount(context.Background(), domain.Listing{Handle: "gir-ghee"})
	assert.ErrorIs(t, err, ErrNoVariant)
	assert.Zero(t, m.Len())
}

func TestGetAndCloseUnknownSession(t *testing.T) {
	m := newManager(fakeCatalog{}, nil)

	_, err := m.Get(uuid.New())
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "session", notFound.Resource)

	assert.ErrorAs(t, m.Close(uuid.New()), &notFound)
}

func TestCloseTearsDownController(t *testing.T) {
	tracker := &countTracker{}
	m := newManager(fakeCatalog{variants: []domain.Variant{{ID: 3, Price: 100, Available: true}}}, tracker)

	ctrl, err := m.Mount(context.Background(), domain.Listing{Handle: "gir-ghee"})
	require.NoError(t, err)
	require.NoError(t, m.Close(ctrl.ID()))

	_, err = ctrl.Dispatch(context.Background(), flow.Trigger{Event: flow.EventIncrement})
	assert.ErrorIs(t, err, flow.ErrClosed)
	assert.Zero(t, tracker.last)

	_, err = m.Get(ctrl.ID())
	assert.Error(t, err)
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	m := newManager(fakeCatalog{variants: []domain.Variant{{ID: 3, Price: 100, Available: true}}}, nil)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stale, err := m.Mount(context.Background(), domain.Listing{Handle: "a"})
	require.NoError(t, err)
	fresh, err := m.Mount(context.Background(), domain.Listing{Handle: "b"})
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, err = m.Get(fresh.ID())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, m.Sweep())

	_, err = m.Get(stale.ID())
	assert.Error(t, err)
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestRunClosesEverythingOnShutdown(t *testing.T) {
	m := newManager(fakeCatalog{variants: []domain.Variant{{ID: 3, Price: 100, Available: true}}}, nil)
	ctrl, err := m.Mount(context.Background(), domain.Listing{Handle: "a"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	assert.Zero(t, m.Len())
	_, err = ctrl.Dispatch(context.Background(), flow.Trigger{Event: flow.EventRetry})
	assert.ErrorIs(t, err, flow.ErrClosed)
}
