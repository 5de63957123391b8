package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/gopiorder/internal/domain"
)

func TestFieldValidators(t *testing.T) {
	tests := []struct {
		name  string
		field domain.Field
		value string
		want  string
	}{
		{name: "name ok", field: domain.FieldName, value: "Ravi"},
		{name: "name trimmed too short", field: domain.FieldName, value: "  R  ", want: "Name must be at least 2 characters."},
		{name: "address ok", field: domain.FieldAddress1, value: "12 MG Road"},
		{name: "address too short", field: domain.FieldAddress1, value: " 12 ", want: "Please enter a valid address."},
		{name: "phone ok", field: domain.FieldPhone, value: "98765 43210"},
		{name: "phone formatted ok", field: domain.FieldPhone, value: "(987) 654-3210"},
		{name: "phone wrong length", field: domain.FieldPhone, value: "98765", want: "Phone number must be 10 digits."},
		{name: "phone bad first digit", field: domain.FieldPhone, value: "5123456789", want: "Phone number must start with 6, 7, 8, or 9."},
		{name: "pin ok", field: domain.FieldPIN, value: "400001"},
		{name: "pin leading zero", field: domain.FieldPIN, value: "012345", want: "PIN code cannot start with 0."},
		{name: "pin short", field: domain.FieldPIN, value: "4000", want: "PIN code must be 6 digits."},
		{name: "address line 2 has no rule", field: domain.FieldAddress2, value: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Field(tc.field, tc.value))
		})
	}
}

func TestAllCollectsEveryFailureInFormOrder(t *testing.T) {
	errs := All(domain.CustomerFields{Name: "A", Phone: "5123456789", Address1: "12 MG Road", PIN: "012345"})
	require.Len(t, errs, 3)
	assert.Equal(t, domain.FieldName, errs[0].Field)
	assert.Equal(t, domain.FieldPhone, errs[1].Field)
	assert.Equal(t, domain.FieldPIN, errs[2].Field)
	assert.Equal(t, "PIN code cannot start with 0.", errs[2].Message)
}

func TestAllPasses(t *testing.T) {
	assert.Empty(t, All(domain.CustomerFields{Name: "Ravi", Phone: "9876543210", Address1: "12 MG Road", PIN: "400001"}))
}
