package domain

// SubmissionStatus represents where an order draft is in the submission flow
type SubmissionStatus string

const (
	StatusIdle            SubmissionStatus = "IDLE"
	StatusValidating      SubmissionStatus = "VALIDATING"
	StatusRefreshingStock SubmissionStatus = "REFRESHING_STOCK"
	StatusSubmitting      SubmissionStatus = "SUBMITTING"
	StatusSucceeded       SubmissionStatus = "SUCCEEDED"
	StatusFailed          SubmissionStatus = "FAILED"
)

// IsValid checks if the submission status is valid
func (s SubmissionStatus) IsValid() bool {
	switch s {
	case StatusIdle,
		StatusValidating,
		StatusRefreshingStock,
		StatusSubmitting,
		StatusSucceeded,
		StatusFailed:
		return true
	default:
		return false
	}
}

// InFlight reports whether a submission attempt is running. New submit
// triggers are ignored while this is true.
func (s SubmissionStatus) InFlight() bool {
	return s == StatusValidating || s == StatusRefreshingStock || s == StatusSubmitting
}

// CanTransitionTo checks if a status transition is valid
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case StatusIdle:
		return next == StatusValidating
	case StatusValidating:
		return next == StatusRefreshingStock || next == StatusFailed
	case StatusRefreshingStock:
		return next == StatusSubmitting || next == StatusFailed
	case StatusSubmitting:
		return next == StatusSucceeded || next == StatusFailed
	case StatusSucceeded, StatusFailed:
		return next == StatusIdle
	default:
		return false
	}
}

// FailureKind classifies why a submission attempt failed
type FailureKind string

const (
	FailureValidation         FailureKind = "VALIDATION"
	FailureStockExceeded      FailureKind = "STOCK_EXCEEDED"
	FailureStockRefreshFailed FailureKind = "STOCK_REFRESH_FAILED"
	FailureServerRejected     FailureKind = "SERVER_REJECTED"
	FailureRateLimited        FailureKind = "RATE_LIMITED"
	FailureNetwork            FailureKind = "NETWORK_ERROR"
	FailureTimeout            FailureKind = "TIMEOUT"
	FailureUnknown            FailureKind = "UNKNOWN"
)

// DeliveryTier is the delivery-time class derived from a postal code
type DeliveryTier string

const (
	TierIncomplete    DeliveryTier = "INCOMPLETE"
	TierUnserviceable DeliveryTier = "MAY_BE_UNSERVICEABLE"
	TierMetro         DeliveryTier = "METRO"
	TierStandard      DeliveryTier = "STANDARD"
)

// CODStatus is cash-on-delivery eligibility for a postal code
type CODStatus string

const (
	CODUnknown   CODStatus = "UNKNOWN"
	CODAvailable CODStatus = "AVAILABLE"
	CODBlocked   CODStatus = "BLOCKED"
)

// Field names the customer-entered form fields
type Field string

const (
	FieldName     Field = "name"
	FieldPhone    Field = "phone"
	FieldAddress1 Field = "address1"
	FieldAddress2 Field = "address2"
	FieldCity     Field = "city"
	FieldState    Field = "state"
	FieldPIN      Field = "pin"
)

// IsValid checks if the field is one the form knows about
func (f Field) IsValid() bool {
	switch f {
	case FieldName, FieldPhone, FieldAddress1, FieldAddress2, FieldCity, FieldState, FieldPIN:
		return true
	default:
		return false
	}
}
