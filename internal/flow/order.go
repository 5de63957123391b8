package flow

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/region"
)

// orderRequestLocked assembles the backend request from the current draft.
// c.mu must be held.
func (c *Controller) orderRequestLocked() domain.OrderRequest {
	d := c.draft
	price := c.pricingLocked()
	money := formatPricing(price, c.rate, c.formatter)
	eta := c.etaTextLocked()

	props := []domain.Property{
		{Key: "Customer Name", Value: strings.TrimSpace(d.Fields.Name)},
		{Key: "Address Line 1", Value: strings.TrimSpace(d.Fields.Address1)},
	}
	props = appendIfSet(props, "Address Line 2", d.Fields.Address2)
	props = appendIfSet(props, "City", d.Fields.City)
	props = appendIfSet(props, "State", d.Fields.State)
	props = appendIfSet(props, "Farmer Name", c.listing.FarmerName)
	props = appendIfSet(props, "Farmer Location", c.listing.FarmerLocation)
	props = appendIfSet(props, "Ghee Type", c.listing.GheeType)
	props = append(props,
		domain.Property{Key: "Order Total", Value: money.Total},
		domain.Property{Key: "Commission", Value: money.Commission},
		domain.Property{Key: "Net Payable", Value: money.NetPayable},
		domain.Property{Key: "Commission Rate", Value: money.CommissionRate},
		domain.Property{Key: "ETA", Value: eta},
		// Underscore keys are hidden from the shopper at checkout.
		domain.Property{Key: "_Phone", Value: d.Fields.Phone},
		domain.Property{Key: "_PIN", Value: d.Fields.PIN},
		domain.Property{Key: "_Address", Value: joinAddress(d.Fields)},
	)

	keys := make([]string, 0, len(c.listing.Attribution))
	for k := range c.listing.Attribution {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		props = appendIfSet(props, k, c.listing.Attribution[k])
	}

	return domain.OrderRequest{
		SessionID:  c.id,
		Handle:     c.listing.Handle,
		VariantID:  d.Variant.ID,
		Quantity:   d.Quantity,
		Pricing:    price,
		Properties: props,
		Customer:   d.Fields,
		Note:       c.noteLocked(money.Commission, eta),
	}
}

// noteLocked is the dispatch annotation attached to the pending cart
func (c *Controller) noteLocked(commission, eta string) string {
	d := c.draft
	lines := []string{
		"--- Animall Gopi Order ---",
		"Farmer: " + c.listing.FarmerName,
		"Location: " + c.listing.FarmerLocation,
		"Type: " + c.listing.GheeType,
		fmt.Sprintf("Qty: %d %s", d.Quantity, c.labels.Unit),
		"Commission: " + commission,
		"Phone: " + d.Fields.Phone,
		"PIN: " + d.Fields.PIN,
	}
	if d.Fields.City != "" {
		lines = append(lines, "City: "+d.Fields.City)
	}
	lines = append(lines, "ETA: "+eta, "---")
	return strings.Join(lines, "\n")
}

// eventLocked records a finished attempt without the raw phone number
func (c *Controller) eventLocked(now time.Time) domain.OrderEvent {
	d := c.draft
	price := c.pricingLocked()
	pinPrefix := ""
	if pin := region.SanitizeDigits(d.Fields.PIN); len(pin) >= 3 {
		pinPrefix = pin[:3]
	}
	return domain.OrderEvent{
		ID:               uuid.New(),
		SessionID:        c.id,
		ProductHandle:    c.listing.Handle,
		VariantID:        d.Variant.ID,
		Quantity:         d.Quantity,
		Total:            price.Total,
		Commission:       price.Commission,
		NetPayable:       price.NetPayable,
		Status:           d.Status,
		FailureKind:      d.Failure,
		Message:          c.errorMessage,
		PhoneFingerprint: PhoneFingerprint(c.fpKey, d.Fields.Phone),
		PINPrefix:        pinPrefix,
		CreatedAt:        now,
	}
}

// PhoneFingerprint is a keyed BLAKE2b MAC of the phone digits, so repeat
// buyers can be correlated without storing the number. Indian mobile numbers
// are few enough to enumerate, so an unkeyed hash would be reversible; only
// holders of key can recompute a fingerprint. An empty key, a key longer than
// blake2b.Size bytes or a phone without digits yields "".
func PhoneFingerprint(key []byte, phone string) string {
	digits := region.SanitizeDigits(phone)
	if digits == "" || len(key) == 0 {
		return ""
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return ""
	}
	h.Write([]byte(digits))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func appendIfSet(props []domain.Property, key, value string) []domain.Property {
	value = strings.TrimSpace(value)
	if value == "" {
		return props
	}
	return append(props, domain.Property{Key: key, Value: value})
}

func joinAddress(f domain.CustomerFields) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{f.Address1, f.Address2, f.City, f.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// MaxQuantity bounds any quantity a shopper can type or step to
const MaxQuantity = 9999

// parseQuantity reads a typed quantity. Anything unparsable or below 1 is 1;
// anything above MaxQuantity, including digit strings too long for an int, is
// MaxQuantity.
func parseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return MaxQuantity
	}
	if err != nil || n < 1 {
		return 1
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}
