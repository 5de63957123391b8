package flow

import (
	"context"
	"fmt"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/region"
	"github.com/jafarshop/gopiorder/internal/validate"
)

// Event is a host UI trigger
type Event string

const (
	EventIncrement   Event = "increment"
	EventDecrement   Event = "decrement"
	EventSetQuantity Event = "set_quantity"
	EventEditField   Event = "edit_field"
	EventBlurField   Event = "blur_field"
	EventSubmit      Event = "submit"
	EventRetry       Event = "retry"
)

// Trigger is one UI event with its payload. Field and Value are used by the
// field and quantity events only.
type Trigger struct {
	Event Event
	Field domain.Field
	Value string
}

// Result is what a dispatched trigger produced. Outcome is set for submits.
type Result struct {
	Snapshot Snapshot
	Outcome  *domain.SubmissionOutcome
}

type transition func(c *Controller, ctx context.Context, t Trigger) (*domain.SubmissionOutcome, error)

// transitions maps every trigger to exactly one named transition
var transitions = map[Event]transition{
	EventIncrement:   (*Controller).increment,
	EventDecrement:   (*Controller).decrement,
	EventSetQuantity: (*Controller).setQuantity,
	EventEditField:   (*Controller).editField,
	EventBlurField:   (*Controller).blurField,
	EventSubmit:      (*Controller).submitTransition,
	EventRetry:       (*Controller).retry,
}

// Dispatch applies a trigger and returns the resulting snapshot
func (c *Controller) Dispatch(ctx context.Context, t Trigger) (Result, error) {
	fn, ok := transitions[t.Event]
	if !ok {
		return Result{}, fmt.Errorf("unknown event %q", t.Event)
	}
	outcome, err := fn(c, ctx, t)
	if err != nil {
		return Result{}, err
	}
	return Result{Snapshot: c.Snapshot(), Outcome: outcome}, nil
}

// editLocked guards every draft edit. c.mu must be held.
func (c *Controller) editLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.draft.Status.InFlight() {
		return ErrSubmissionInFlight
	}
	return nil
}

func (c *Controller) increment(ctx context.Context, t Trigger) (*domain.SubmissionOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editLocked(); err != nil {
		return nil, err
	}
	if c.draft.Quantity >= c.guard.Ceiling() || c.draft.Quantity >= MaxQuantity {
		return nil, nil
	}
	c.draft.Quantity++
	c.publishLocked()
	return nil, nil
}

func (c *Controller) decrement(ctx context.Context, t Trigger) (*domain.SubmissionOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editLocked(); err != nil {
		return nil, err
	}
	if c.draft.Quantity <= 1 {
		return nil, nil
	}
	c.draft.Quantity--
	c.publishLocked()
	return nil, nil
}

// setQuantity takes typed input as is. Values above the ceiling are kept so
// the submit reports StockExceeded instead of silently changing the order.
func (c *Controller) setQuantity(ctx context.Context, t Trigger) (*domain.SubmissionOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editLocked(); err != nil {
		return nil, err
	}
	c.draft.Quantity = parseQuantity(t.Value)
	c.publishLocked()
	return nil, nil
}

func (c *Controller) editField(ctx context.Context, t Trigger) (*domain.SubmissionOutcome, error) {
	if !t.Field.IsValid() {
		return nil, fmt.Errorf("unknown field %q", t.Field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editLocked(); err != nil {
		return nil, err
	}

	value := t.Value
	switch t.Field {
	case domain.FieldPhone:
		value = truncate(region.SanitizeDigits(value), 10)
	case domain.FieldPIN:
		value = truncate(region.SanitizeDigits(value), region.PINLength)
	}
	c.draft.Fields = c.draft.Fields.Set(t.Field, value)
	delete(c.fieldErrors, t.Field)

	if t.Field == domain.FieldPIN {
		c.eligibility = region.Resolve(value, c.profile)
		c.draft.Fields = region.AutoFill(c.draft.Fields, c.eligibility)
	}

	c.publishLocked()
	return nil, nil
}

// blurField validates one field and marks or clears it
func (c *Controller) blurField(ctx context.Context, t Trigger) (*domain.SubmissionOutcome, error) {
	if !t.Field.IsValid() {
		return nil, fmt.Errorf("unknown field %q", t.Field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	if msg := validate.Field(t.Field, c.draft.Fields.Get(t.Field)); msg != "" {
		c.fieldErrors[t.Field] = msg
	} else {
		delete(c.fieldErrors, t.Field)
	}
	c.publishLocked()
	return nil, nil
}

func (c *Controller) submitTransition(ctx context.Context, t Trigger) (*domain.SubmissionOutcome, error) {
	out := c.Submit(ctx)
	return &out, nil
}

// retry re-arms Idle after a finished attempt
func (c *Controller) retry(ctx context.Context, t Trigger) (*domain.SubmissionOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editLocked(); err != nil {
		return nil, err
	}
	if c.draft.Status == domain.StatusIdle {
		return nil, nil
	}
	if err := c.setStatusLocked(domain.StatusIdle); err != nil {
		return nil, err
	}
	c.errorMessage, c.advisory, c.checkoutURL, c.cartToken = "", "", "", ""
	c.publishLocked()
	return nil, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
