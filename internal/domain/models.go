package domain

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a purchasable configuration of a listing as seen at mount time
type Variant struct {
	ID           int64
	Title        string
	Price        int64 // minor currency units
	Tracked      bool
	InventoryQty int
	Available    bool
}

// Listing is the static metadata a session is mounted with. UnitPrice and
// MaxStock are only used when no variant could be resolved.
type Listing struct {
	Handle         string
	VariantHint    string
	UnitPrice      int64
	MaxStock       int
	FarmerName     string
	FarmerLocation string
	GheeType       string
	Attribution    map[string]string
}

// CustomerFields holds the form values entered by the shopper
type CustomerFields struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	PIN      string `json:"pin"`
}

// Get returns the value of a field
func (c CustomerFields) Get(f Field) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldPhone:
		return c.Phone
	case FieldAddress1:
		return c.Address1
	case FieldAddress2:
		return c.Address2
	case FieldCity:
		return c.City
	case FieldState:
		return c.State
	case FieldPIN:
		return c.PIN
	default:
		return ""
	}
}

// Set returns a copy with one field replaced
func (c CustomerFields) Set(f Field, value string) CustomerFields {
	switch f {
	case FieldName:
		c.Name = value
	case FieldPhone:
		c.Phone = value
	case FieldAddress1:
		c.Address1 = value
	case FieldAddress2:
		c.Address2 = value
	case FieldCity:
		c.City = value
	case FieldState:
		c.State = value
	case FieldPIN:
		c.PIN = value
	}
	return c
}

// OrderDraft is the mutable per-session order state
type OrderDraft struct {
	Variant        Variant
	Quantity       int
	CommissionRate float64
	Status         SubmissionStatus
	Failure        FailureKind
	Fields         CustomerFields
}

// PricingResult is derived from a draft, never stored
type PricingResult struct {
	UnitPrice  int64 `json:"unit_price"`
	Total      int64 `json:"total"`
	Commission int64 `json:"commission"`
	NetPayable int64 `json:"net_payable"`
}

// RegionProfile is the postal-prefix configuration loaded at mount
type RegionProfile struct {
	Metro         []string
	Unserviceable []string
	CODBlocked    []string
	Cities        map[string]CityState
}

// CityState is an auto-fill entry keyed by a 3-digit postal prefix
type CityState struct {
	City  string
	State string
}

// ValidationError is one failed field check
type ValidationError struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// SubmissionOutcome is the result of one submit trigger
type SubmissionOutcome struct {
	Success     bool        `json:"success"`
	Ignored     bool        `json:"ignored,omitempty"`
	Kind        FailureKind `json:"kind,omitempty"`
	Message     string      `json:"message,omitempty"`
	CheckoutURL string      `json:"checkout_url,omitempty"`
	CartToken   string      `json:"cart_token,omitempty"`
}

// OrderEvent is an audit record of a finished submission attempt
type OrderEvent struct {
	ID               uuid.UUID
	SessionID        uuid.UUID
	ProductHandle    string
	VariantID        int64
	Quantity         int
	Total            int64
	Commission       int64
	NetPayable       int64
	Status           SubmissionStatus
	FailureKind      FailureKind
	Message          string
	PhoneFingerprint string
	PINPrefix        string
	CreatedAt        time.Time
}

// Property is one line-item key/value. Order is kept so the backend shows
// properties the way the form lists them.
type Property struct {
	Key   string
	Value string
}

// OrderRequest is what gets sent to the commerce backend on submit
type OrderRequest struct {
	SessionID  uuid.UUID
	Handle     string
	VariantID  int64
	Quantity   int
	Pricing    PricingResult
	Properties []Property
	Customer   CustomerFields
	Note       string
}

// Acceptance is the backend's answer to an accepted order. CartToken is set
// by the cart backend so the host page can set the shop's cart cookie.
type Acceptance struct {
	Reference   string
	CheckoutURL string
	CartToken   string
}
