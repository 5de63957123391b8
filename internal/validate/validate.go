// Package validate holds the checkout form field checks. Each validator returns
// an empty string on success or a single user-facing message.
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/region"
)

func Name(s string) string {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < 2 {
		return "Name must be at least 2 characters."
	}
	return ""
}

func Address(s string) string {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < 5 {
		return "Please enter a valid address."
	}
	return ""
}

// Phone accepts Indian mobile numbers: 10 digits starting with 6-9
func Phone(s string) string {
	digits := region.SanitizeDigits(s)
	if len(digits) != 10 {
		return "Phone number must be 10 digits."
	}
	if digits[0] < '6' {
		return "Phone number must start with 6, 7, 8, or 9."
	}
	return ""
}

func PIN(s string) string {
	digits := region.SanitizeDigits(s)
	if len(digits) != region.PINLength {
		return "PIN code must be 6 digits."
	}
	if digits[0] == '0' {
		return "PIN code cannot start with 0."
	}
	return ""
}

// Field runs the validator for a single field. Fields without a rule pass.
func Field(f domain.Field, value string) string {
	switch f {
	case domain.FieldName:
		return Name(value)
	case domain.FieldPhone:
		return Phone(value)
	case domain.FieldAddress1:
		return Address(value)
	case domain.FieldPIN:
		return PIN(value)
	default:
		return ""
	}
}

// checked is the order fields are validated and reported in
var checked = []domain.Field{domain.FieldName, domain.FieldPhone, domain.FieldAddress1, domain.FieldPIN}

// All validates every field with a rule and returns every failure in form
// order. The first entry is the one to surface to the shopper.
func All(fields domain.CustomerFields) []domain.ValidationError {
	var errs []domain.ValidationError
	for _, f := range checked {
		if msg := Field(f, fields.Get(f)); msg != "" {
			errs = append(errs, domain.ValidationError{Field: f, Message: msg})
		}
	}
	return errs
}
