package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to SubmissionStatus
		want     bool
	}{
		{StatusIdle, StatusValidating, true},
		{StatusIdle, StatusSubmitting, false},
		{StatusValidating, StatusRefreshingStock, true},
		{StatusValidating, StatusFailed, true},
		{StatusValidating, StatusSubmitting, false},
		{StatusRefreshingStock, StatusSubmitting, true},
		{StatusRefreshingStock, StatusFailed, true},
		{StatusSubmitting, StatusSucceeded, true},
		{StatusSubmitting, StatusFailed, true},
		{StatusSubmitting, StatusIdle, false},
		{StatusSucceeded, StatusIdle, true},
		{StatusFailed, StatusIdle, true},
		{StatusFailed, StatusValidating, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSubmissionStatusInFlight(t *testing.T) {
	assert.True(t, StatusValidating.InFlight())
	assert.True(t, StatusRefreshingStock.InFlight())
	assert.True(t, StatusSubmitting.InFlight())
	assert.False(t, StatusIdle.InFlight())
	assert.False(t, StatusFailed.InFlight())
	assert.False(t, SubmissionStatus("BOGUS").IsValid())
}

func TestCustomerFieldsSetReturnsCopy(t *testing.T) {
	var f CustomerFields
	g := f.Set(FieldCity, "Pune")
	assert.Empty(t, f.City)
	assert.Equal(t, "Pune", g.Get(FieldCity))
	assert.True(t, FieldAddress2.IsValid())
	assert.False(t, Field("email").IsValid())
}
