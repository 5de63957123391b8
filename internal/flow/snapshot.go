package flow

import (
	"strconv"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/pricing"
)

// Notice levels for the status line under the form
const (
	LevelInfo     = "info"
	LevelError    = "error"
	LevelVerified = "verified"
)

// Snapshot is the read-only view emitted to subscribers on every change
type Snapshot struct {
	SessionID   string                  `json:"session_id"`
	Handle      string                  `json:"handle"`
	VariantID   int64                   `json:"variant_id"`
	Status      domain.SubmissionStatus `json:"status"`
	FailureKind domain.FailureKind      `json:"failure_kind,omitempty"`

	Quantity     int    `json:"quantity"`
	Ceiling      int    `json:"ceiling"`
	Tracked      bool   `json:"tracked"`
	StockLabel   string `json:"stock_label"`
	Unit         string `json:"unit"`
	CanIncrement bool   `json:"can_increment"`
	CanDecrement bool   `json:"can_decrement"`

	Pricing   domain.PricingResult `json:"pricing"`
	Formatted FormattedPricing     `json:"formatted"`

	ETA     string              `json:"eta"`
	Tier    domain.DeliveryTier `json:"tier"`
	COD     domain.CODStatus    `json:"cod"`
	CODNote string              `json:"cod_note"`

	Fields      domain.CustomerFields   `json:"fields"`
	FieldErrors map[domain.Field]string `json:"field_errors,omitempty"`

	SubmitEnabled bool   `json:"submit_enabled"`
	SubmitLabel   string `json:"submit_label"`
	Notice        string `json:"notice"`
	NoticeLevel   string `json:"notice_level"`
	Error         string `json:"error,omitempty"`
	Advisory      string `json:"advisory,omitempty"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
	CartToken     string `json:"cart_token,omitempty"`
}

// FormattedPricing is PricingResult rendered for display
type FormattedPricing struct {
	UnitPrice      string `json:"unit_price"`
	Total          string `json:"total"`
	Commission     string `json:"commission"`
	NetPayable     string `json:"net_payable"`
	CommissionRate string `json:"commission_rate"`
}

func formatPricing(p domain.PricingResult, rate pricing.Rate, f pricing.Formatter) FormattedPricing {
	return FormattedPricing{
		UnitPrice:      f.FormatMoney(p.UnitPrice),
		Total:          f.FormatMoney(p.Total),
		Commission:     f.FormatMoney(p.Commission),
		NetPayable:     f.FormatMoney(p.NetPayable),
		CommissionRate: rate.Label(),
	}
}

// snapshotLocked builds the view. c.mu must be held.
func (c *Controller) snapshotLocked() Snapshot {
	d := c.draft
	ceiling := c.guard.Ceiling()
	inFlight := d.Status.InFlight()
	price := c.pricingLocked()

	s := Snapshot{
		SessionID:    c.id.String(),
		Handle:       c.listing.Handle,
		VariantID:    d.Variant.ID,
		Status:       d.Status,
		FailureKind:  d.Failure,
		Quantity:     d.Quantity,
		Ceiling:      ceiling,
		Tracked:      c.guard.Tracked(),
		Unit:         c.labels.Unit,
		CanIncrement: !inFlight && d.Quantity < ceiling && d.Quantity < MaxQuantity,
		CanDecrement: !inFlight && d.Quantity > 1,
		Pricing:      price,
		Formatted:    formatPricing(price, c.rate, c.formatter),
		ETA:          c.etaTextLocked(),
		Tier:         c.eligibility.Tier,
		COD:          c.eligibility.COD,
		CODNote:      c.codNoteLocked(),
		Fields:       d.Fields,
		Advisory:     c.advisory,
		CheckoutURL:  c.checkoutURL,
		CartToken:    c.cartToken,
	}

	if s.Tracked {
		s.StockLabel = strconv.Itoa(ceiling)
	} else {
		s.StockLabel = c.labels.StockFlexible
	}

	if len(c.fieldErrors) > 0 {
		s.FieldErrors = make(map[domain.Field]string, len(c.fieldErrors))
		for f, msg := range c.fieldErrors {
			s.FieldErrors[f] = msg
		}
	}

	switch {
	case inFlight:
		s.SubmitLabel = c.labels.SubmitLoading
	case ceiling < 1:
		s.SubmitLabel = c.labels.SubmitSoldOut
	case d.Quantity > 0:
		s.SubmitEnabled = true
		s.SubmitLabel = c.labels.SubmitReady
	default:
		s.SubmitLabel = c.labels.SubmitDefault
	}

	switch {
	case d.Status == domain.StatusFailed:
		s.Error = c.errorMessage
		s.Notice, s.NoticeLevel = c.errorMessage, LevelError
	case c.advisory != "":
		s.Notice, s.NoticeLevel = c.advisory, LevelError
	case d.Status == domain.StatusSucceeded:
		s.Notice, s.NoticeLevel = c.labels.SubmitSucceeded, LevelVerified
	case ceiling < 1:
		s.Notice, s.NoticeLevel = c.labels.SoldOutNote, LevelError
	default:
		s.Notice, s.NoticeLevel = c.labels.VerifyNotRequired, LevelInfo
	}

	return s
}

func (c *Controller) etaTextLocked() string {
	switch c.eligibility.Tier {
	case domain.TierUnserviceable:
		return c.labels.ETAUnserviceable
	case domain.TierMetro:
		return c.labels.ETAMetro
	case domain.TierStandard:
		return c.labels.ETARegular
	default:
		return c.labels.ETAEnterPIN
	}
}

func (c *Controller) codNoteLocked() string {
	switch c.eligibility.COD {
	case domain.CODAvailable:
		return c.labels.CODAvailable
	case domain.CODBlocked:
		return c.labels.CODUnavailable
	default:
		return ""
	}
}
