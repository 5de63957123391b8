package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/config"
)

// Storefront talks to the shop's public AJAX endpoints (/products/*.js, /cart/*.js)
type Storefront struct {
	baseURL    string
	cfg        config.ShopifyConfig
	logger     *zap.Logger
	httpClient *http.Client
}

// NewStorefront creates a storefront client. Product lookups share one
// cookieless HTTP client; carts get their own via NewCart.
func NewStorefront(cfg config.ShopifyConfig, logger *zap.Logger) *Storefront {
	return &Storefront{
		baseURL:    BaseURL(cfg.ShopDomain),
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}
}

// Product is the payload of /products/{handle}.js
type Product struct {
	ID       int64            `json:"id"`
	Handle   string           `json:"handle"`
	Title    string           `json:"title"`
	Variants []ProductVariant `json:"variants"`
}

// ProductVariant is one variant inside a Product. Price is in minor units.
type ProductVariant struct {
	ID                  int64   `json:"id"`
	Title               string  `json:"title"`
	Price               int64   `json:"price"`
	Available           bool    `json:"available"`
	InventoryManagement *string `json:"inventory_management"`
	InventoryQuantity   int     `json:"inventory_quantity"`
}

// Product fetches a product with its variants
func (s *Storefront) Product(ctx context.Context, handle string) (*Product, error) {
	endpoint := fmt.Sprintf("%s/products/%s.js", s.baseURL, url.PathEscape(handle))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var product Product
	if err := doJSON(s.httpClient, req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// NewCart opens a cart session with its own cookie jar
func (s *Storefront) NewCart() *Cart {
	jar, _ := cookiejar.New(nil)
	return &Cart{
		baseURL:    s.baseURL,
		httpClient: &http.Client{
			Timeout: timeoutOrDefault(s.cfg.Timeout),
			Jar:     jar,
		},
		logger: s.logger,
	}
}

// Cart is one shopper's storefront cart. The cart itself is created on the
// first request and every later request reuses its token.
type Cart struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	token string
}

type cartState struct {
	Token string `json:"token"`
}

// CartItemInput is one line of a /cart/add.js request
type CartItemInput struct {
	ID         int64             `json:"id"`
	Quantity   int               `json:"quantity"`
	Properties map[string]string `json:"properties,omitempty"`
}

type cartAddRequest struct {
	Items []CartItemInput `json:"items"`
}

// CartAddResponse is the accepted payload of /cart/add.js
type CartAddResponse struct {
	Items []struct {
		Key       string `json:"key"`
		VariantID int64  `json:"variant_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// Add puts items into the cart
func (c *Cart) Add(ctx context.Context, items ...CartItemInput) (*CartAddResponse, error) {
	var out CartAddResponse
	if err := c.post(ctx, "/cart/add.js", cartAddRequest{Items: items}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNote replaces the cart note
func (c *Cart) UpdateNote(ctx context.Context, note string) error {
	return c.post(ctx, "/cart/update.js", map[string]string{"note": note}, nil)
}

// Token is the storefront cart token, empty until the cart is established
func (c *Cart) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// CheckoutURL is where the shopper continues after a successful add. The
// /cart/c/{token} permalink restores this cart in the shopper's browser,
// which never saw our cookie jar.
func (c *Cart) CheckoutURL() string {
	token := c.Token()
	if token == "" {
		return c.baseURL + "/cart"
	}
	return c.baseURL + "/cart/c/" + token
}

// establish reads /cart.js once so every request after it lands on the same
// cart. Concurrent first callers wait for that one lookup.
func (c *Cart) establish(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cart.js", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var state cartState
	if err := doJSON(c.httpClient, req, &state); err != nil {
		return fmt.Errorf("failed to establish cart: %w", err)
	}
	if state.Token == "" {
		return fmt.Errorf("failed to establish cart: no token in /cart.js")
	}
	c.pinToken(state.Token)
	c.token = state.Token
	c.logger.Debug("Cart established", zap.String("cart_token", state.Token))
	return nil
}

// pinToken stores the token as the cart cookie when the shop did not set one
func (c *Cart) pinToken(token string) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return
	}
	for _, ck := range c.httpClient.Jar.Cookies(u) {
		if ck.Name == "cart" {
			return
		}
	}
	c.httpClient.Jar.SetCookies(u, []*http.Cookie{{Name: "cart", Value: token, Path: "/"}})
}

func (c *Cart) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	if err := c.establish(ctx); err != nil {
		return err
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return doJSON(c.httpClient, req, out)
}

// errorPayload is the storefront's JSON error body
type errorPayload struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// doJSON executes req and decodes a 2xx body into out. Non-2xx answers become
// *APIError; transport failures are wrapped so net.Error stays reachable.
func doJSON(client *http.Client, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload errorPayload
		if len(body) > 0 {
			_ = json.Unmarshal(body, &payload)
		}
		status := resp.StatusCode
		if payload.Status != 0 {
			status = payload.Status
		}
		return &APIError{Status: status, Message: payload.Message, Description: payload.Description}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
