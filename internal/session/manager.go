// Package session hosts the live order flow controllers, one per mounted
// listing, and evicts the ones whose page went away without saying so.
package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/flow"
	"github.com/jafarshop/gopiorder/internal/stock"
	apperrors "github.com/jafarshop/gopiorder/pkg/errors"
)

// ErrNoVariant is returned when neither the catalog nor the listing metadata
// names a variant to order.
var ErrNoVariant = errors.New("listing has no purchasable variant")

// Catalog lists the variants of a product handle
type Catalog interface {
	Variants(ctx context.Context, handle string) ([]domain.Variant, error)
}

// Tracker is told how many sessions are live after every change
type Tracker interface {
	SessionsOpen(n int)
}

// Config wires a Manager. Events, Observer and Tracker are optional.
type Config struct {
	Catalog         Catalog
	Stock           stock.Source
	NewBackend      func() flow.Backend
	Events          flow.EventSink
	Observer        flow.Observer
	Tracker         Tracker
	Options         flow.Options
	FallbackCeiling int
	TTL             time.Duration
	Logger          *zap.Logger
}

type entry struct {
	ctrl     *flow.Controller
	lastSeen time.Time
}

// Manager owns every mounted controller
type Manager struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return &Manager{
		cfg:      cfg,
		logger:   cfg.Logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// Mount resolves the listing's variant, builds its stock guard and backend
// and starts a controller for it. A catalog failure is not fatal: the
// listing's own unit price and max stock are used instead.
func (m *Manager) Mount(ctx context.Context, listing domain.Listing) (*flow.Controller, error) {
	var resolved *domain.Variant
	variants, err := m.cfg.Catalog.Variants(ctx, listing.Handle)
	if err != nil {
		m.logger.Warn("Catalog unavailable, using listing metadata",
			zap.String("handle", listing.Handle),
			zap.Error(err),
		)
	} else if v, ok := stock.ResolveVariant(listing.VariantHint, variants); ok {
		resolved = &v
	}

	hintID, _ := strconv.ParseInt(listing.VariantHint, 10, 64)
	variant := domain.Variant{ID: hintID, Price: listing.UnitPrice}
	if resolved != nil {
		variant = *resolved
	}
	if variant.ID == 0 {
		return nil, ErrNoVariant
	}

	id := uuid.New()
	guard := stock.NewGuard(listing, resolved, m.cfg.FallbackCeiling, m.cfg.Stock, m.logger)
	ctrl := flow.New(id, listing, variant, m.cfg.Options, flow.Deps{
		Guard:    guard,
		Backend:  m.cfg.NewBackend(),
		Events:   m.cfg.Events,
		Observer: m.cfg.Observer,
		Logger:   m.logger,
	})

	m.mu.Lock()
	m.sessions[id] = &entry{ctrl: ctrl, lastSeen: m.now()}
	n := len(m.sessions)
	m.mu.Unlock()
	m.track(n)

	m.logger.Info("Session mounted",
		zap.String("session_id", id.String()),
		zap.String("handle", listing.Handle),
		zap.Int64("variant_id", variant.ID),
		zap.Int("ceiling", guard.Ceiling()),
		zap.Bool("tracked", guard.Tracked()),
	)
	return ctrl, nil
}

// Get returns a live controller and marks the session as seen
func (m *Manager) Get(id uuid.UUID) (*flow.Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "session", ID: id.String()}
	}
	e.lastSeen = m.now()
	return e.ctrl, nil
}

// Close tears a session down. An in-flight submission finishes upstream but
// its response is discarded.
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return &apperrors.ErrNotFound{Resource: "session", ID: id.String()}
	}
	e.ctrl.Close()
	m.track(n)
	return nil
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes every session not seen within the TTL and returns how many
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.cfg.TTL)

	m.mu.Lock()
	var expired []*flow.Controller
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.ctrl)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("Expired idle sessions", zap.Int("count", len(expired)), zap.Int("live", n))
		m.track(n)
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done, then closes what is left
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			m.closeAll()
			return
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[uuid.UUID]*entry)
	m.mu.Unlock()

	for _, e := range all {
		e.ctrl.Close()
	}
	m.track(0)
}

func (m *Manager) track(n int) {
	if m.cfg.Tracker != nil {
		m.cfg.Tracker.SessionsOpen(n)
	}
}
