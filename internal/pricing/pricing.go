// Package pricing turns a unit price, quantity and commission rate into order
// totals. All amounts are integer minor currency units (paise).
//
// Commission is rounded half away from zero (decimal.Round), so 0.5 paise
// becomes 1 paise. This is not tied to any payment processor's rounding.
package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/gopiorder/internal/domain"
)

// DefaultRatePercent is used when the configured rate is missing or unusable
const DefaultRatePercent = 10

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// Rate is a commission rate clamped to [0%, 100%]
type Rate struct {
	percent decimal.Decimal
}

// ParseRatePercent parses a percentage such as "12.5". Empty, non-numeric and
// negative input fall back to DefaultRatePercent; values above 100 clamp to 100.
func ParseRatePercent(raw string) Rate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RateFromPercent(decimal.NewFromInt(DefaultRatePercent))
	}
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return RateFromPercent(decimal.NewFromInt(DefaultRatePercent))
	}
	return RateFromPercent(p)
}

// RateFromPercent builds a Rate from a percentage, applying the same fallback
// and clamping rules as ParseRatePercent.
func RateFromPercent(p decimal.Decimal) Rate {
	if p.IsNegative() {
		p = decimal.NewFromInt(DefaultRatePercent)
	}
	if p.GreaterThan(hundred) {
		p = hundred
	}
	return Rate{percent: p}
}

// Percent returns the rate as a percentage
func (r Rate) Percent() decimal.Decimal {
	return r.percent
}

// Fraction returns the rate in [0, 1]
func (r Rate) Fraction() decimal.Decimal {
	return r.percent.Div(hundred)
}

// Float64 returns the rate in [0, 1] as a float
func (r Rate) Float64() float64 {
	f, _ := r.Fraction().Float64()
	return f
}

// Label renders the percentage with at most two decimals, e.g. "10%" or "12.5%"
func (r Rate) Label() string {
	return r.percent.Round(2).String() + "%"
}

// Compute returns the pricing for quantity units at unitPrice.
// Negative inputs are treated as zero so every result field stays non-negative.
// A total that does not fit in int64 saturates at math.MaxInt64.
func Compute(unitPrice int64, quantity int, rate Rate) domain.PricingResult {
	if unitPrice < 0 {
		unitPrice = 0
	}
	if quantity < 0 {
		quantity = 0
	}

	gross := decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	if gross.GreaterThan(maxMinor) {
		gross = maxMinor
	}
	total := gross.IntPart()
	commission := gross.Mul(rate.Fraction()).Round(0).IntPart()
	net := total - commission
	if net < 0 {
		net = 0
	}

	return domain.PricingResult{
		UnitPrice:  unitPrice,
		Total:      total,
		Commission: commission,
		NetPayable: net,
	}
}
