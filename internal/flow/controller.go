// Package flow is the order flow controller: a per-listing state machine that
// turns a quantity choice and a filled form into a validated, priced,
// stock-checked order submission.
package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/pricing"
	"github.com/jafarshop/gopiorder/internal/region"
	"github.com/jafarshop/gopiorder/internal/stock"
	"github.com/jafarshop/gopiorder/internal/validate"
	apperrors "github.com/jafarshop/gopiorder/pkg/errors"
)

var (
	// ErrSubmissionInFlight is returned for draft edits while a submit is running
	ErrSubmissionInFlight = errors.New("submission in progress")
	// ErrClosed is returned once the session has been torn down
	ErrClosed = errors.New("session closed")
)

// Backend is the commerce backend an order is submitted to
type Backend interface {
	Submit(ctx context.Context, req domain.OrderRequest) (*domain.Acceptance, error)
	// Annotate attaches a free-text note to the pending order. Best effort.
	Annotate(ctx context.Context, note string) error
}

// EventSink records finished submission attempts
type EventSink interface {
	Record(ctx context.Context, event domain.OrderEvent) error
}

// Observer is notified of every finished submission attempt
type Observer interface {
	SubmissionFinished(outcome domain.SubmissionOutcome, elapsed time.Duration)
}

// Options is the read-only configuration a controller is mounted with
type Options struct {
	Rate              pricing.Rate
	Profile           domain.RegionProfile
	Labels            Labels
	AnnotationTimeout time.Duration
	// FingerprintKey keys the phone fingerprint on order events. Empty
	// leaves events without one.
	FingerprintKey []byte
}

// Deps are the collaborators a controller calls out to. Events and Observer
// are optional.
type Deps struct {
	Guard     *stock.Guard
	Backend   Backend
	Events    EventSink
	Observer  Observer
	Formatter pricing.Formatter
	Logger    *zap.Logger
}

// Controller owns one OrderDraft. All draft mutation goes through the
// transition functions in dispatch.go.
type Controller struct {
	id      uuid.UUID
	listing domain.Listing
	rate    pricing.Rate
	profile domain.RegionProfile
	labels  Labels

	guard      *stock.Guard
	backend    Backend
	events     EventSink
	observer   Observer
	formatter  pricing.Formatter
	logger     *zap.Logger
	annotateTO time.Duration
	fpKey      []byte

	mu           sync.Mutex
	draft        domain.OrderDraft
	eligibility  region.Eligibility
	fieldErrors  map[domain.Field]string
	errorMessage string
	advisory     string
	checkoutURL  string
	cartToken    string
	closed       bool
	subs         map[int]chan Snapshot
	nextSub      int

	bgErrs    chan error
	done      chan struct{}
	closeOnce sync.Once
}

// New mounts a controller for one listing. variant is the resolved variant,
// or a synthetic one carrying the listing's static unit price.
func New(id uuid.UUID, listing domain.Listing, variant domain.Variant, opts Options, deps Deps) *Controller {
	if deps.Formatter == nil {
		deps.Formatter = pricing.RupeeFormatter{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.AnnotationTimeout <= 0 {
		opts.AnnotationTimeout = 10 * time.Second
	}

	c := &Controller{
		id:          id,
		listing:     listing,
		rate:        opts.Rate,
		profile:     opts.Profile,
		labels:      opts.Labels,
		guard:       deps.Guard,
		backend:     deps.Backend,
		events:      deps.Events,
		observer:    deps.Observer,
		formatter:   deps.Formatter,
		logger:      deps.Logger.With(zap.String("session_id", id.String()), zap.String("handle", listing.Handle)),
		annotateTO:  opts.AnnotationTimeout,
		fpKey:       opts.FingerprintKey,
		fieldErrors: make(map[domain.Field]string),
		subs:        make(map[int]chan Snapshot),
		bgErrs:      make(chan error, 16),
		done:        make(chan struct{}),
	}
	c.draft = domain.OrderDraft{
		Variant:        variant,
		Quantity:       deps.Guard.InitialQuantity(),
		CommissionRate: opts.Rate.Float64(),
		Status:         domain.StatusIdle,
	}
	c.eligibility = region.Resolve("", opts.Profile)

	go c.drainBackground()
	return c
}

// ID returns the session id
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Snapshot returns the current view
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel that receives the current snapshot at once and
// then one snapshot per state change. Slow readers only ever miss
// intermediate snapshots, never the latest one. Call cancel to unsubscribe.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, 4)
	if c.closed {
		ch <- c.snapshotLocked()
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close tears the session down. An in-flight submission keeps running but
// its response is discarded.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
		c.mu.Unlock()
		close(c.done)
	})
}

// publishLocked pushes the current snapshot to every subscriber, dropping the
// oldest queued one when a subscriber is full. c.mu must be held.
func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// setStatusLocked moves the draft along the submission state graph
func (c *Controller) setStatusLocked(next domain.SubmissionStatus) error {
	if !c.draft.Status.CanTransitionTo(next) {
		return &apperrors.ErrInvalidStateTransition{From: c.draft.Status, To: next}
	}
	c.draft.Status = next
	if next != domain.StatusFailed {
		c.draft.Failure = ""
	}
	return nil
}

func (c *Controller) pricingLocked() domain.PricingResult {
	return pricing.Compute(c.draft.Variant.Price, c.draft.Quantity, c.rate)
}

// background runs fn detached from the caller. Its error goes to the
// background error channel, which is only ever logged.
func (c *Controller) background(name string, timeout time.Duration, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			select {
			case c.bgErrs <- &backgroundError{name: name, err: err}:
			default:
				c.logger.Warn("Background error dropped", zap.String("task", name), zap.Error(err))
			}
		}
	}()
}

func (c *Controller) drainBackground() {
	for {
		select {
		case err := <-c.bgErrs:
			c.logger.Warn("Background task failed", zap.Error(err))
		case <-c.done:
			return
		}
	}
}

type backgroundError struct {
	name string
	err  error
}

func (e *backgroundError) Error() string { return e.name + ": " + e.err.Error() }
func (e *backgroundError) Unwrap() error { return e.err }

// failLocked moves to Failed(kind) with exactly one message
func (c *Controller) failLocked(kind domain.FailureKind, msg string) domain.SubmissionOutcome {
	if err := c.setStatusLocked(domain.StatusFailed); err != nil {
		c.logger.Error("Unexpected transition", zap.Error(err))
		c.draft.Status = domain.StatusFailed
	}
	c.draft.Failure = kind
	c.errorMessage = msg
	return domain.SubmissionOutcome{Kind: kind, Message: msg}
}

// markFieldErrorsLocked replaces the field marks with errs
func (c *Controller) markFieldErrorsLocked(errs []domain.ValidationError) {
	c.fieldErrors = make(map[domain.Field]string, len(errs))
	for _, e := range errs {
		c.fieldErrors[e.Field] = e.Message
	}
}

// Submit runs one submission attempt: validate, range check, refresh stock,
// re-check, submit. A trigger while another attempt is in flight is ignored.
func (c *Controller) Submit(ctx context.Context) domain.SubmissionOutcome {
	// The request that triggered the submit may go away; the attempt may not.
	ctx = context.WithoutCancel(ctx)
	started := time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.SubmissionOutcome{Ignored: true, Message: ErrClosed.Error()}
	}
	if c.draft.Status.InFlight() {
		c.mu.Unlock()
		return domain.SubmissionOutcome{Ignored: true}
	}
	if c.draft.Status == domain.StatusFailed || c.draft.Status == domain.StatusSucceeded {
		_ = c.setStatusLocked(domain.StatusIdle)
	}
	_ = c.setStatusLocked(domain.StatusValidating)
	c.errorMessage, c.advisory, c.checkoutURL, c.cartToken = "", "", "", ""

	errs := validate.All(c.draft.Fields)
	c.markFieldErrorsLocked(errs)
	if len(errs) > 0 {
		out := c.failLocked(domain.FailureValidation, errs[0].Message)
		c.publishLocked()
		c.mu.Unlock()
		c.finish(out, started, nil)
		return out
	}

	if q := c.draft.Quantity; q < 1 || q > c.guard.Ceiling() {
		out := c.failLocked(domain.FailureStockExceeded, c.labels.StockExceeded)
		event := c.eventLocked(time.Now().UTC())
		c.publishLocked()
		c.mu.Unlock()
		c.finish(out, started, &event)
		return out
	}

	_ = c.setStatusLocked(domain.StatusRefreshingStock)
	c.publishLocked()
	c.mu.Unlock()

	ceiling, refreshErr := c.guard.Refresh(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.SubmissionOutcome{Ignored: true, Message: ErrClosed.Error()}
	}
	if refreshErr != nil {
		c.advisory = c.labels.StockRefreshFailed
	}
	c.draft.Quantity = stock.Clamp(c.draft.Quantity, ceiling)
	if q := c.draft.Quantity; q < 1 || q > ceiling {
		out := c.failLocked(domain.FailureStockExceeded, c.labels.StockExceeded)
		event := c.eventLocked(time.Now().UTC())
		c.publishLocked()
		c.mu.Unlock()
		c.finish(out, started, &event)
		return out
	}

	_ = c.setStatusLocked(domain.StatusSubmitting)
	req := c.orderRequestLocked()
	c.publishLocked()
	c.mu.Unlock()

	c.background("annotate order", c.annotateTO, func(ctx context.Context) error {
		return c.backend.Annotate(ctx, req.Note)
	})

	acceptance, err := c.backend.Submit(ctx, req)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Info("Discarding submission response for closed session", zap.Bool("accepted", err == nil))
		return domain.SubmissionOutcome{Ignored: true, Message: ErrClosed.Error()}
	}

	var out domain.SubmissionOutcome
	if err != nil {
		kind, msg := Classify(err, c.labels)
		c.logger.Warn("Order submission failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		out = c.failLocked(kind, msg)
	} else {
		_ = c.setStatusLocked(domain.StatusSucceeded)
		c.checkoutURL, c.cartToken = acceptance.CheckoutURL, acceptance.CartToken
		out = domain.SubmissionOutcome{Success: true, CheckoutURL: acceptance.CheckoutURL, CartToken: acceptance.CartToken}
		c.logger.Info("Order submitted",
			zap.Int64("variant_id", req.VariantID),
			zap.Int("quantity", req.Quantity),
			zap.Int64("total", req.Pricing.Total),
			zap.String("reference", acceptance.Reference),
		)
	}
	event := c.eventLocked(time.Now().UTC())
	c.publishLocked()
	c.mu.Unlock()

	c.finish(out, started, &event)
	return out
}

// finish reports a finished attempt to the observer and, when there is an
// event, to the event sink in the background. Validation failures carry none.
func (c *Controller) finish(out domain.SubmissionOutcome, started time.Time, event *domain.OrderEvent) {
	if c.observer != nil {
		c.observer.SubmissionFinished(out, time.Since(started))
	}
	if event == nil || c.events == nil {
		return
	}

	c.background("record order event", c.annotateTO, func(ctx context.Context) error {
		return c.events.Record(ctx, *event)
	})
}
