// Package region maps Indian PIN codes to delivery tier, cash-on-delivery
// eligibility and a city/state auto-fill suggestion. Everything here is a
// pure function of the PIN and a domain.RegionProfile.
package region

import (
	"strings"

	"github.com/jafarshop/gopiorder/internal/domain"
)

// PINLength is the number of digits in a complete PIN code
const PINLength = 6

// DefaultMetroPrefixes are used when no metro list is configured
var DefaultMetroPrefixes = []string{"110", "400", "560", "600", "500", "700"}

// DefaultCities covers the top metros and the dairy belt
var DefaultCities = map[string]domain.CityState{
	"110": {City: "New Delhi", State: "Delhi"},
	"400": {City: "Mumbai", State: "Maharashtra"},
	"560": {City: "Bengaluru", State: "Karnataka"},
	"600": {City: "Chennai", State: "Tamil Nadu"},
	"500": {City: "Hyderabad", State: "Telangana"},
	"700": {City: "Kolkata", State: "West Bengal"},
	"380": {City: "Ahmedabad", State: "Gujarat"},
	"411": {City: "Pune", State: "Maharashtra"},
	"302": {City: "Jaipur", State: "Rajasthan"},
	"226": {City: "Lucknow", State: "Uttar Pradesh"},
	"462": {City: "Bhopal", State: "Madhya Pradesh"},
	"682": {City: "Kochi", State: "Kerala"},
	"360": {City: "Rajkot", State: "Gujarat"},
	"388": {City: "Anand", State: "Gujarat"},
	"395": {City: "Surat", State: "Gujarat"},
	"390": {City: "Vadodara", State: "Gujarat"},
	"201": {City: "Noida", State: "Uttar Pradesh"},
	"122": {City: "Gurugram", State: "Haryana"},
	"141": {City: "Ludhiana", State: "Punjab"},
	"160": {City: "Chandigarh", State: "Chandigarh"},
	"440": {City: "Nagpur", State: "Maharashtra"},
	"452": {City: "Indore", State: "Madhya Pradesh"},
	"800": {City: "Patna", State: "Bihar"},
}

// Eligibility is everything derived from one PIN code
type Eligibility struct {
	PIN      string
	Complete bool
	Tier     domain.DeliveryTier
	COD      domain.CODStatus
	City     domain.CityState
	HasCity  bool
}

// NewProfile builds an immutable profile. A nil metro list selects
// DefaultMetroPrefixes and a nil city table selects DefaultCities.
func NewProfile(metro, unserviceable, codBlocked []string, cities map[string]domain.CityState) domain.RegionProfile {
	if metro == nil {
		metro = DefaultMetroPrefixes
	}
	if cities == nil {
		cities = DefaultCities
	}
	table := make(map[string]domain.CityState, len(cities))
	for k, v := range cities {
		table[k] = v
	}
	return domain.RegionProfile{
		Metro:         append([]string(nil), metro...),
		Unserviceable: append([]string(nil), unserviceable...),
		CODBlocked:    append([]string(nil), codBlocked...),
		Cities:        table,
	}
}

// ParsePrefixes splits a comma separated list, keeps only digits and drops
// empty entries: " 110, 4a00,," -> ["110", "400"]
func ParsePrefixes(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := SanitizeDigits(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SanitizeDigits strips every non-digit character
func SanitizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve classifies a PIN. Input is sanitized first; anything shorter or
// longer than six digits is reported as incomplete rather than as an error.
func Resolve(pin string, profile domain.RegionProfile) Eligibility {
	pin = SanitizeDigits(pin)
	e := Eligibility{PIN: pin, Tier: domain.TierIncomplete, COD: domain.CODUnknown}

	// City lookup only needs the prefix, so partial input can still auto-fill.
	e.City, e.HasCity = LookupCity(pin, profile)

	if len(pin) != PINLength {
		return e
	}
	e.Complete = true
	e.Tier = Tier(pin, profile)
	e.COD = COD(pin, profile)
	return e
}

// Tier returns the delivery tier for a complete PIN. Unserviceable wins over metro.
func Tier(pin string, profile domain.RegionProfile) domain.DeliveryTier {
	switch {
	case matchesPrefix(pin, profile.Unserviceable):
		return domain.TierUnserviceable
	case matchesPrefix(pin, profile.Metro):
		return domain.TierMetro
	default:
		return domain.TierStandard
	}
}

// COD returns cash-on-delivery eligibility for a complete PIN
func COD(pin string, profile domain.RegionProfile) domain.CODStatus {
	if matchesPrefix(pin, profile.CODBlocked) || matchesPrefix(pin, profile.Unserviceable) {
		return domain.CODBlocked
	}
	return domain.CODAvailable
}

// LookupCity finds the auto-fill entry for the first three digits of pin
func LookupCity(pin string, profile domain.RegionProfile) (domain.CityState, bool) {
	if len(pin) < 3 {
		return domain.CityState{}, false
	}
	cs, ok := profile.Cities[pin[:3]]
	return cs, ok
}

// AutoFill fills City and State from the lookup, leaving non-empty values alone
func AutoFill(fields domain.CustomerFields, e Eligibility) domain.CustomerFields {
	if !e.HasCity {
		return fields
	}
	if fields.City == "" {
		fields.City = e.City.City
	}
	if fields.State == "" {
		fields.State = e.City.State
	}
	return fields
}

func matchesPrefix(pin string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(pin, p) {
			return true
		}
	}
	return false
}
