package flow

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/shopify"
)

// Classify maps a backend submission error to a failure kind and the one
// message shown to the shopper.
func Classify(err error, labels Labels) (domain.FailureKind, string) {
	if err == nil {
		return "", ""
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.FailureTimeout, labels.Timeout
	}

	var apiErr *shopify.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnprocessableEntity, http.StatusConflict, http.StatusNotFound, http.StatusGone:
			return domain.FailureServerRejected, labels.ServerRejected
		case http.StatusTooManyRequests:
			return domain.FailureRateLimited, labels.RateLimited
		}
		if apiErr.Message != "" {
			return domain.FailureUnknown, apiErr.Message
		}
		return domain.FailureUnknown, labels.OrderFailed
	}

	if netErr != nil || errors.As(err, &netErr) {
		return domain.FailureNetwork, labels.NetworkError
	}

	return domain.FailureUnknown, labels.OrderFailed
}
