package flow

// Labels is every user-facing string the controller emits
type Labels struct {
	StockFlexible      string
	VerifyNotRequired  string
	StockExceeded      string
	OrderFailed        string
	StockRefreshFailed string
	SoldOutNote        string
	SubmitReady        string
	SubmitLoading      string
	SubmitSoldOut      string
	SubmitDefault      string
	SubmitSucceeded    string
	Unit               string
	ETAEnterPIN        string
	ETAMetro           string
	ETARegular         string
	ETAUnserviceable   string
	CODAvailable       string
	CODUnavailable     string
	ServerRejected     string
	RateLimited        string
	NetworkError       string
	Timeout            string
}

// DefaultLabels returns the stock English copy
func DefaultLabels() Labels {
	return Labels{
		StockFlexible:      "25+",
		VerifyNotRequired:  "Phone verification is disabled. You can place order directly.",
		StockExceeded:      "Quantity exceeds available stock.",
		OrderFailed:        "Could not place the order. Please try again.",
		StockRefreshFailed: "Could not refresh live stock. Proceeding with current stock value.",
		SoldOutNote:        "This listing is currently out of stock.",
		SubmitReady:        "Place Order & Pay",
		SubmitLoading:      "Adding to cart...",
		SubmitSoldOut:      "Sold Out",
		SubmitDefault:      "Verify Phone to Continue",
		SubmitSucceeded:    "Added to cart! Redirecting to checkout...",
		Unit:               "kg",
		ETAEnterPIN:        "Enter your PIN to see estimated delivery window.",
		ETAMetro:           "Estimated delivery: 2-3 business days.",
		ETARegular:         "Estimated delivery: 4-6 business days.",
		ETAUnserviceable:   "This PIN may not be serviceable. Our team will confirm after checkout.",
		CODAvailable:       "Cash on delivery is available for this PIN code.",
		CODUnavailable:     "Cash on delivery is not available for this PIN code. Prepaid only.",
		ServerRejected:     "This product is currently unavailable. Please refresh and try again.",
		RateLimited:        "Too many requests. Please wait a moment and try again.",
		NetworkError:       "Network error. Please check your connection and try again.",
		Timeout:            "Request timed out. Please try again.",
	}
}

// WithOverrides replaces labels named in overrides (e.g. "SUBMIT_READY").
// Unknown names and empty values are ignored.
func (l Labels) WithOverrides(overrides map[string]string) Labels {
	fields := map[string]*string{
		"STOCK_FLEXIBLE":       &l.StockFlexible,
		"VERIFY_NOT_REQUIRED":  &l.VerifyNotRequired,
		"STOCK_EXCEEDED":       &l.StockExceeded,
		"ORDER_FAILED":         &l.OrderFailed,
		"STOCK_REFRESH_FAILED": &l.StockRefreshFailed,
		"SOLD_OUT_NOTE":        &l.SoldOutNote,
		"SUBMIT_READY":         &l.SubmitReady,
		"SUBMIT_LOADING":       &l.SubmitLoading,
		"SUBMIT_SOLD_OUT":      &l.SubmitSoldOut,
		"SUBMIT_DEFAULT":       &l.SubmitDefault,
		"SUBMIT_SUCCEEDED":     &l.SubmitSucceeded,
		"UNIT":                 &l.Unit,
		"ETA_ENTER_PIN":        &l.ETAEnterPIN,
		"ETA_METRO":            &l.ETAMetro,
		"ETA_REGULAR":          &l.ETARegular,
		"ETA_UNSERVICEABLE":    &l.ETAUnserviceable,
		"COD_AVAILABLE":        &l.CODAvailable,
		"COD_UNAVAILABLE":      &l.CODUnavailable,
		"SERVER_REJECTED":      &l.ServerRejected,
		"RATE_LIMITED":         &l.RateLimited,
		"NETWORK_ERROR":        &l.NetworkError,
		"TIMEOUT":              &l.Timeout,
	}
	for name, value := range overrides {
		if dst, ok := fields[name]; ok && value != "" {
			*dst = value
		}
	}
	return l
}
