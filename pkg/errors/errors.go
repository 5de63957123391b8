package errors

import (
	"fmt"

	"github.com/jafarshop/gopiorder/internal/domain"
)

// ErrNotFound is returned when a requested resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrInvalidStateTransition is returned when a submission status change is not allowed
type ErrInvalidStateTransition struct {
	From domain.SubmissionStatus
	To   domain.SubmissionStatus
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}
