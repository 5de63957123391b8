package stock

import (
	"strconv"

	"github.com/jafarshop/gopiorder/internal/domain"
)

// ResolveVariant picks the variant that governs price and stock for a session:
// the hinted id if present, else the first available variant, else the first
// one. ok is false only when variants is empty.
func ResolveVariant(hint string, variants []domain.Variant) (v domain.Variant, ok bool) {
	if len(variants) == 0 {
		return domain.Variant{}, false
	}

	if hint != "" {
		for _, candidate := range variants {
			if strconv.FormatInt(candidate.ID, 10) == hint {
				return candidate, true
			}
		}
	}

	for _, candidate := range variants {
		if candidate.Available {
			return candidate, true
		}
	}

	return variants[0], true
}
