package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter renders minor currency units for display
type Formatter interface {
	FormatMoney(minor int64) string
}

// RupeeFormatter formats whole rupees with Indian digit grouping, e.g. ₹1,20,000
type RupeeFormatter struct{}

func (RupeeFormatter) FormatMoney(minor int64) string {
	rupees := decimal.New(minor, -2).Round(0)
	sign := ""
	if rupees.IsNegative() {
		sign = "-"
		rupees = rupees.Abs()
	}
	return sign + "₹" + groupIndian(rupees.String())
}

// groupIndian groups the last three digits, then pairs: 1234567 -> 12,34,567
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}
