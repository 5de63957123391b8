package shopify

import "fmt"

// APIError is a non-2xx answer from the storefront or admin API
type APIError struct {
	Status      int
	Message     string
	Description string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Description != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Description)
	}
	return fmt.Sprintf("shopify API error: status %d: %s", e.Status, msg)
}
