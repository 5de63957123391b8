package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/config"
)

func newStorefront(t *testing.T, h http.Handler) *Storefront {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewStorefront(config.ShopifyConfig{ShopDomain: srv.URL, Timeout: time.Second}, zap.NewNop())
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://gopi.myshopify.com", BaseURL("gopi.myshopify.com/"))
	assert.Equal(t, "https://gopi.myshopify.com", BaseURL("https://gopi.myshopify.com"))
	assert.Equal(t, "http://127.0.0.1:9000", BaseURL("http://127.0.0.1:9000/"))
}

func TestStorefrontProduct(t *testing.T) {
	sf := newStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/a2-ghee.js", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"id":1,"handle":"a2-ghee","variants":[
			{"id":11,"price":120000,"available":false,"inventory_management":"shopify","inventory_quantity":0},
			{"id":12,"price":95000,"available":true,"inventory_management":null,"inventory_quantity":-3}]}`))
	}))

	p, err := sf.Product(context.Background(), "a2-ghee")
	require.NoError(t, err)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, int64(120000), p.Variants[0].Price)
	require.NotNil(t, p.Variants[0].InventoryManagement)
	assert.Nil(t, p.Variants[1].InventoryManagement)
	assert.True(t, p.Variants[1].Available)
}

func TestCartAddRejected(t *testing.T) {
	sf := newStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cart.js" {
			_, _ = w.Write([]byte(`{"token":"tok-1"}`))
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status":422,"message":"Cart Error","description":"Sold out"}`))
	}))

	_, err := sf.NewCart().Add(context.Background(), CartItemInput{ID: 11, Quantity: 2})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 422, apiErr.Status)
	assert.Equal(t, "Cart Error", apiErr.Message)
	assert.Equal(t, "Sold out", apiErr.Description)
}

func TestCartKeepsItsOwnCookies(t *testing.T) {
	sf := newStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cart.js":
			http.SetCookie(w, &http.Cookie{Name: "cart", Value: "tok-1", Path: "/"})
			_, _ = w.Write([]byte(`{"token":"tok-1","items":[]}`))
		case "/cart/add.js":
			c, err := r.Cookie("cart")
			if assert.NoError(t, err) {
				assert.Equal(t, "tok-1", c.Value)
			}
			var body cartAddRequest
			if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && assert.Len(t, body.Items, 1) {
				assert.Equal(t, "Ravi", body.Items[0].Properties["Customer Name"])
			}
			_, _ = w.Write([]byte(`{"items":[{"key":"11:abc","variant_id":11,"quantity":2}]}`))
		case "/cart/update.js":
			c, err := r.Cookie("cart")
			if assert.NoError(t, err) {
				assert.Equal(t, "tok-1", c.Value)
			}
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "hello", body["note"])
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	cart := sf.NewCart()
	assert.Empty(t, cart.Token())
	resp, err := cart.Add(context.Background(), CartItemInput{ID: 11, Quantity: 2, Properties: map[string]string{"Customer Name": "Ravi"}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.NoError(t, cart.UpdateNote(context.Background(), "hello"))
	assert.Equal(t, "tok-1", cart.Token())
	assert.True(t, strings.HasSuffix(cart.CheckoutURL(), "/cart/c/tok-1"), cart.CheckoutURL())
}

// A shop that opens a new cart for every cookie-less request must still see
// the note and the line item land on one cart when both go out at once.
func TestCartConcurrentFirstUseSharesOneCart(t *testing.T) {
	var (
		mu      sync.Mutex
		minted  int
		addTok  string
		noteTok string
	)
	tokenFor := func(w http.ResponseWriter, r *http.Request) string {
		mu.Lock()
		defer mu.Unlock()
		if c, err := r.Cookie("cart"); err == nil {
			return c.Value
		}
		minted++
		tok := fmt.Sprintf("cart-%d", minted)
		http.SetCookie(w, &http.Cookie{Name: "cart", Value: tok, Path: "/"})
		return tok
	}

	sf := newStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := tokenFor(w, r)
		switch r.URL.Path {
		case "/cart.js":
			_, _ = fmt.Fprintf(w, `{"token":%q}`, tok)
		case "/cart/add.js":
			mu.Lock()
			addTok = tok
			mu.Unlock()
			_, _ = w.Write([]byte(`{"items":[{"key":"11:abc","variant_id":11,"quantity":1}]}`))
		case "/cart/update.js":
			mu.Lock()
			noteTok = tok
			mu.Unlock()
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	cart := sf.NewCart()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, cart.UpdateNote(context.Background(), "note"))
	}()
	go func() {
		defer wg.Done()
		_, err := cart.Add(context.Background(), CartItemInput{ID: 11, Quantity: 1})
		assert.NoError(t, err)
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, minted)
	assert.Equal(t, "cart-1", addTok)
	assert.Equal(t, addTok, noteTok)
	assert.Equal(t, "cart-1", cart.Token())
}

func TestCartPinsTokenWhenShopSetsNoCookie(t *testing.T) {
	sf := newStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cart.js":
			_, _ = w.Write([]byte(`{"token":"abc?key=def"}`))
		case "/cart/update.js":
			c, err := r.Cookie("cart")
			if assert.NoError(t, err) {
				assert.Equal(t, "abc?key=def", c.Value)
			}
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	cart := sf.NewCart()
	require.NoError(t, cart.UpdateNote(context.Background(), "note"))
	assert.True(t, strings.HasSuffix(cart.CheckoutURL(), "/cart/c/abc?key=def"), cart.CheckoutURL())
}

func TestCartEstablishFailure(t *testing.T) {
	sf := newStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))

	cart := sf.NewCart()
	_, err := cart.Add(context.Background(), CartItemInput{ID: 11, Quantity: 1})
	assert.ErrorContains(t, err, "no token")
	assert.Empty(t, cart.Token())
	assert.True(t, strings.HasSuffix(cart.CheckoutURL(), "/cart"))
}

func TestCreateDraftOrderUserErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-01/graphql.json", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("X-Shopify-Access-Token"))
		_, _ = w.Write([]byte(`{"data":{"draftOrderCreate":{"draftOrder":null,"userErrors":[{"field":["lineItems"],"message":"Variant is out of stock"}]}}}`))
	}))
	defer srv.Close()

	c := NewClient(config.ShopifyConfig{ShopDomain: srv.URL, AccessToken: "tok"}, zap.NewNop())
	_, err := c.CreateDraftOrder(context.Background(), DraftOrderInput{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Variant is out of stock", apiErr.Message)
}

func TestVariantInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GraphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gid://shopify/ProductVariant/11", req.Variables["id"])
		_, _ = w.Write([]byte(`{"data":{"productVariant":{"id":"gid://shopify/ProductVariant/11","inventoryQuantity":4,"inventoryItem":{"tracked":true}}}}`))
	}))
	defer srv.Close()

	c := NewClient(config.ShopifyConfig{ShopDomain: srv.URL, AccessToken: "tok"}, zap.NewNop())
	qty, tracked, found, err := c.VariantInventory(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, 4, qty)
	assert.True(t, tracked)
	assert.True(t, found)
}

func TestAdminRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("Exceeded 2 calls per second"))
	}))
	defer srv.Close()

	c := NewClient(config.ShopifyConfig{ShopDomain: srv.URL}, zap.NewNop())
	_, _, _, err := c.VariantInventory(context.Background(), 11)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestAdminThrottledGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Throttled","path":["draftOrderCreate",0],"extensions":{"code":"THROTTLED","documentation":"https://shopify.dev/api/usage/rate-limits"}}],
			"extensions":{"cost":{"requestedQueryCost":10,"throttleStatus":{"currentlyAvailable":0}}}}`))
	}))
	defer srv.Close()

	c := NewClient(config.ShopifyConfig{ShopDomain: srv.URL, AccessToken: "tok"}, zap.NewNop())
	_, err := c.CreateDraftOrder(context.Background(), DraftOrderInput{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Empty(t, apiErr.Message)
}

func TestAdminOtherGraphQLErrorsStayPlain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Field 'x' doesn't exist","extensions":{"code":"undefinedField"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.ShopifyConfig{ShopDomain: srv.URL, AccessToken: "tok"}, zap.NewNop())
	_, _, _, err := c.VariantInventory(context.Background(), 11)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestAdminErrorBodyIsNotShopperFacing(t *testing.T) {
	body := `<!DOCTYPE html><html><body>Invalid API key or access token (unrecognized login or wrong password)</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(config.ShopifyConfig{ShopDomain: srv.URL, AccessToken: "bad"}, zap.NewNop())
	_, err := c.CreateDraftOrder(context.Background(), DraftOrderInput{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, body, apiErr.Description)
}
